//go:generate go run ../../cmd/icl-cmdgen -catalog ../catalog/commands/icl.yaml -output commands_gen.go

package wire

import "strings"

// Family identifies which part of the ICL a command addresses.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyICL
	FamilyCCD
	FamilyMono
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyICL:
		return "ICL"
	case FamilyCCD:
		return "CCD"
	case FamilyMono:
		return "MONO"
	default:
		return "UNKNOWN"
	}
}

// FamilyOf returns the family of a command from its name prefix.
func FamilyOf(command string) Family {
	switch {
	case strings.HasPrefix(command, "icl_"):
		return FamilyICL
	case strings.HasPrefix(command, "ccd_"):
		return FamilyCCD
	case strings.HasPrefix(command, "mono_"):
		return FamilyMono
	default:
		return FamilyUnknown
	}
}
