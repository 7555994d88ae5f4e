package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Defaults shared by client and server.
const (
	// DefaultURL is the endpoint of a locally running ICL.
	DefaultURL = "ws://127.0.0.1:25010"

	// DefaultPort is the ICL WebSocket port.
	DefaultPort = 25010

	// DefaultMaxMessageSize is the largest frame accepted (1 MiB).
	// Acquisition data of a full chip readout fits comfortably.
	DefaultMaxMessageSize = 1 << 20
)

// Connection errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidPingData  = errors.New("invalid ping payload")
)

// FrameType is the type of a WebSocket data frame.
type FrameType uint8

const (
	FrameText FrameType = iota
	FrameBinary
)

// String returns the frame type name.
func (t FrameType) String() string {
	switch t {
	case FrameText:
		return "TEXT"
	case FrameBinary:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

// Frame is a received data frame.
type Frame struct {
	Type FrameType
	Data []byte
}

func frameTypeOf(messageType int) (FrameType, bool) {
	switch messageType {
	case websocket.TextMessage:
		return FrameText, true
	case websocket.BinaryMessage:
		return FrameBinary, true
	}
	return 0, false
}

// EncodePingData encodes a keep-alive sequence number as ping payload.
func EncodePingData(seq uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, seq)
	return buf
}

// DecodePingData decodes a ping or pong payload written by EncodePingData.
func DecodePingData(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, ErrInvalidPingData
	}
	return binary.BigEndian.Uint32(data), nil
}

// IsNormalClose reports whether err is the result of an orderly close.
func IsNormalClose(err error) bool {
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// ValidateURL checks that raw is a ws:// or wss:// URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid ICL address %q: %w", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid ICL address %q: scheme must be ws or wss", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid ICL address %q: missing host", raw)
	}
	return nil
}
