package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of an ICL endpoint.
	ServiceType = "_horiba-icl._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the ICL WebSocket port.
	DefaultPort = 25010

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"  // ICL version (required)
	TXTKeyName    = "name" // Instance name (optional)
)

// Timing constants.
const (
	// BrowseTimeout bounds Find when the caller's context has no deadline.
	BrowseTimeout = 5 * time.Second

	// DefaultTTL is the DNS record TTL of advertised services.
	DefaultTTL = 120 * time.Second
)

// Errors.
var (
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
	ErrNotAdvertising      = errors.New("not advertising")
)

// Info is what an ICL endpoint advertises about itself.
type Info struct {
	// Instance is the DNS-SD instance name, e.g. "ICL-lab-3".
	Instance string

	// Port is the WebSocket port (default 25010).
	Port uint16

	// Version is the ICL version.
	Version string

	// Name is an optional user-friendly name.
	Name string
}

// Validate checks the info before advertising.
func (i *Info) Validate() error {
	if err := ValidateInstanceName(i.Instance); err != nil {
		return err
	}
	if i.Version == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	return nil
}

// Service is a discovered ICL endpoint.
type Service struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string
	Version   string
	Name      string
}

// URL returns the WebSocket address of the service. The first IPv4
// address is preferred, then any address, then the host name.
func (s *Service) URL() string {
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return "ws://" + net.JoinHostPort(s.dialHost(), strconv.Itoa(int(port)))
}

func (s *Service) dialHost() string {
	var v6 string
	for _, addr := range s.Addresses {
		ip := net.ParseIP(addr)
		switch {
		case ip == nil:
		case ip.To4() != nil:
			return addr
		case v6 == "":
			v6 = addr
		}
	}
	if v6 != "" {
		return v6
	}
	return strings.TrimSuffix(s.Host, ".")
}

// String returns a one-line description.
func (s *Service) String() string {
	name := s.Instance
	if s.Name != "" {
		name = fmt.Sprintf("%s (%s)", s.Instance, s.Name)
	}
	return fmt.Sprintf("%s ICL %s at %s", name, s.Version, s.URL())
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
