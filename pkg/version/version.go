// Package version parses and compares ICL version strings.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SDK is the version of this SDK, advertised by the simulator.
const SDK = "0.3.0"

// MinimumICL is the oldest ICL release the SDK has been used against.
const MinimumICL = "2.0"

// Version is a dotted numeric version such as "2.0.0.102".
// Missing components are zero.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
	Build uint32

	// Raw is the string the version was parsed from.
	Raw string
}

// Parse parses a version with two to four numeric components. A leading
// "v" and any suffix after a space, "-" or "+" are ignored, so
// "v2.0.1-rc1" and "2.0.0.102 (x64)" are accepted.
func Parse(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if i := strings.IndexAny(s, " -+"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return Version{}, fmt.Errorf("invalid version %q: expected 2 to 4 components", raw)
	}

	var nums [4]uint32
	for i, p := range parts {
		if p == "" {
			return Version{}, fmt.Errorf("invalid version %q: empty component", raw)
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: bad component %q", raw, p)
		}
		nums[i] = uint32(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: nums[3], Raw: raw}, nil
}

// MustParse is like Parse but panics on error. For constants only.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns "major.minor.patch", with the build appended when set.
func (v Version) String() string {
	if v.Build != 0 {
		return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(other Version) int {
	a := [4]uint32{v.Major, v.Minor, v.Patch, v.Build}
	b := [4]uint32{other.Major, other.Minor, other.Patch, other.Build}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool {
	return v.Compare(other) >= 0
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Supported reports whether an ICL version string is at least MinimumICL.
func Supported(icl string) (bool, error) {
	v, err := Parse(icl)
	if err != nil {
		return false, err
	}
	return v.AtLeast(MustParse(MinimumICL)), nil
}
