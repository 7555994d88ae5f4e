package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Gain is the CCD gain setting token.
type Gain int

const (
	GainHighLight        Gain = 0
	GainBestDynamicRange Gain = 1
	GainHighSensitivity  Gain = 2
)

var gainNames = map[Gain]string{
	GainHighLight:        "HIGH_LIGHT",
	GainBestDynamicRange: "BEST_DYNAMIC_RANGE",
	GainHighSensitivity:  "HIGH_SENSITIVITY",
}

// String returns the gain name.
func (g Gain) String() string { return enumName(gainNames, g) }

// ParseGain parses a gain name or token.
func ParseGain(s string) (Gain, error) { return parseEnum("gain", gainNames, s) }

// Speed is the CCD readout speed token.
type Speed int

const (
	SpeedSlow   Speed = 0
	SpeedMedium Speed = 1
	SpeedFast   Speed = 2
)

var speedNames = map[Speed]string{
	SpeedSlow:   "SLOW",
	SpeedMedium: "MEDIUM",
	SpeedFast:   "FAST",
}

// String returns the speed name.
func (s Speed) String() string { return enumName(speedNames, s) }

// ParseSpeed parses a speed name or token.
func ParseSpeed(s string) (Speed, error) { return parseEnum("speed", speedNames, s) }

// ConversionType selects how the x axis of acquisition data is computed.
type ConversionType int

const (
	ConversionNone               ConversionType = 0
	ConversionFromCcdFirmware    ConversionType = 1
	ConversionFromIclSettingsIni ConversionType = 2
)

var conversionNames = map[ConversionType]string{
	ConversionNone:               "NONE",
	ConversionFromCcdFirmware:    "FROM_CCD_FIRMWARE",
	ConversionFromIclSettingsIni: "FROM_ICL_SETTINGS_INI",
}

// String returns the conversion type name.
func (c ConversionType) String() string { return enumName(conversionNames, c) }

// ParseConversionType parses a conversion type name or value.
func ParseConversionType(s string) (ConversionType, error) {
	return parseEnum("conversion type", conversionNames, s)
}

// AcquisitionFormat is the CCD acquisition format.
type AcquisitionFormat int

const (
	AcquisitionFormatSpectra      AcquisitionFormat = 0
	AcquisitionFormatImage        AcquisitionFormat = 1
	AcquisitionFormatCrop         AcquisitionFormat = 2
	AcquisitionFormatFastKinetics AcquisitionFormat = 3
)

var acquisitionFormatNames = map[AcquisitionFormat]string{
	AcquisitionFormatSpectra:      "SPECTRA",
	AcquisitionFormatImage:        "IMAGE",
	AcquisitionFormatCrop:         "CROP",
	AcquisitionFormatFastKinetics: "FAST_KINETICS",
}

// String returns the format name.
func (f AcquisitionFormat) String() string { return enumName(acquisitionFormatNames, f) }

// ParseAcquisitionFormat parses a format name or value.
func ParseAcquisitionFormat(s string) (AcquisitionFormat, error) {
	return parseEnum("acquisition format", acquisitionFormatNames, s)
}

// CleanCountMode is the CCD clean mode passed with the clean count.
type CleanCountMode int

const (
	CleanCountModeMode1 CleanCountMode = 238
)

var cleanCountModeNames = map[CleanCountMode]string{
	CleanCountModeMode1: "MODE_1",
}

// String returns the mode name.
func (m CleanCountMode) String() string { return enumName(cleanCountModeNames, m) }

// ParseCleanCountMode parses a mode name or value.
func ParseCleanCountMode(s string) (CleanCountMode, error) {
	return parseEnum("clean count mode", cleanCountModeNames, s)
}

// Grating is a monochromator turret position.
type Grating int

const (
	GratingFirst  Grating = 0
	GratingSecond Grating = 1
	GratingThird  Grating = 2
)

var gratingNames = map[Grating]string{
	GratingFirst:  "FIRST",
	GratingSecond: "SECOND",
	GratingThird:  "THIRD",
}

// String returns the grating name.
func (g Grating) String() string { return enumName(gratingNames, g) }

// ParseGrating parses a grating name or position.
func ParseGrating(s string) (Grating, error) { return parseEnum("grating", gratingNames, s) }

// FilterWheel selects one of the monochromator filter wheels.
type FilterWheel int

const (
	FilterWheelFirst  FilterWheel = 0
	FilterWheelSecond FilterWheel = 1
)

var filterWheelNames = map[FilterWheel]string{
	FilterWheelFirst:  "FIRST",
	FilterWheelSecond: "SECOND",
}

// String returns the wheel name.
func (w FilterWheel) String() string { return enumName(filterWheelNames, w) }

// ParseFilterWheel parses a wheel name or location.
func ParseFilterWheel(s string) (FilterWheel, error) {
	return parseEnum("filter wheel", filterWheelNames, s)
}

// FilterWheelPosition is a filter slot on a wheel.
type FilterWheelPosition int

const (
	FilterWheelPositionRed    FilterWheelPosition = 0
	FilterWheelPositionGreen  FilterWheelPosition = 1
	FilterWheelPositionBlue   FilterWheelPosition = 2
	FilterWheelPositionYellow FilterWheelPosition = 3
)

var filterWheelPositionNames = map[FilterWheelPosition]string{
	FilterWheelPositionRed:    "RED",
	FilterWheelPositionGreen:  "GREEN",
	FilterWheelPositionBlue:   "BLUE",
	FilterWheelPositionYellow: "YELLOW",
}

// String returns the position name.
func (p FilterWheelPosition) String() string { return enumName(filterWheelPositionNames, p) }

// ParseFilterWheelPosition parses a position name or slot.
func ParseFilterWheelPosition(s string) (FilterWheelPosition, error) {
	return parseEnum("filter wheel position", filterWheelPositionNames, s)
}

// Mirror selects the entrance or exit mirror.
type Mirror int

const (
	MirrorEntrance Mirror = 0
	MirrorExit     Mirror = 1
)

var mirrorNames = map[Mirror]string{
	MirrorEntrance: "ENTRANCE",
	MirrorExit:     "EXIT",
}

// String returns the mirror name.
func (m Mirror) String() string { return enumName(mirrorNames, m) }

// ParseMirror parses a mirror name or location.
func ParseMirror(s string) (Mirror, error) { return parseEnum("mirror", mirrorNames, s) }

// MirrorPosition is the direction a mirror sends the beam.
type MirrorPosition int

const (
	MirrorPositionAxial   MirrorPosition = 0
	MirrorPositionLateral MirrorPosition = 1
)

var mirrorPositionNames = map[MirrorPosition]string{
	MirrorPositionAxial:   "AXIAL",
	MirrorPositionLateral: "LATERAL",
}

// String returns the position name.
func (p MirrorPosition) String() string { return enumName(mirrorPositionNames, p) }

// ParseMirrorPosition parses a position name or value.
func ParseMirrorPosition(s string) (MirrorPosition, error) {
	return parseEnum("mirror position", mirrorPositionNames, s)
}

// Slit selects one of the monochromator slits.
type Slit int

const (
	SlitA Slit = 0
	SlitB Slit = 1
	SlitC Slit = 2
	SlitD Slit = 3
)

var slitNames = map[Slit]string{
	SlitA: "A",
	SlitB: "B",
	SlitC: "C",
	SlitD: "D",
}

// String returns the slit name.
func (s Slit) String() string { return enumName(slitNames, s) }

// ParseSlit parses a slit name or location.
func ParseSlit(s string) (Slit, error) { return parseEnum("slit", slitNames, s) }

// ShutterPosition is the state of the monochromator shutter.
type ShutterPosition int

const (
	ShutterClosed ShutterPosition = 0
	ShutterOpened ShutterPosition = 1
)

var shutterPositionNames = map[ShutterPosition]string{
	ShutterClosed: "CLOSED",
	ShutterOpened: "OPENED",
}

// String returns the shutter state name.
func (p ShutterPosition) String() string { return enumName(shutterPositionNames, p) }

// ParseShutterPosition parses a shutter state name or value.
func ParseShutterPosition(s string) (ShutterPosition, error) {
	return parseEnum("shutter position", shutterPositionNames, s)
}

func enumName[T ~int](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(v)) + ")"
}

// parseEnum accepts a name in any case, with spaces, dashes or
// underscores between words, or the numeric value. Numeric values are
// taken as-is since firmware may report values this package does not name.
func parseEnum[T ~int](kind string, names map[T]string, s string) (T, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return T(n), nil
	}
	key := normalizeEnumName(s)
	for v, name := range names {
		if normalizeEnumName(name) == key {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func normalizeEnumName(s string) string {
	s = strings.ToUpper(s)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
