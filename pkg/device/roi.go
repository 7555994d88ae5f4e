package device

import (
	"errors"
	"fmt"
)

// ErrInvalidRegion is returned for a region of interest the CCD cannot use.
var ErrInvalidRegion = errors.New("invalid region of interest")

// RegionOfInterest is the sensor area read out by an acquisition.
type RegionOfInterest struct {
	Index    int `json:"roiIndex" yaml:"index"`
	XOrigin  int `json:"xOrigin" yaml:"xOrigin"`
	YOrigin  int `json:"yOrigin" yaml:"yOrigin"`
	XSize    int `json:"xSize" yaml:"xSize"`
	YSize    int `json:"ySize" yaml:"ySize"`
	XBinning int `json:"xBin" yaml:"xBin"`
	YBinning int `json:"yBin" yaml:"yBin"`
}

// DefaultRegionOfInterest covers a 1024x256 chip with full vertical
// binning, giving one spectrum of 1024 points.
func DefaultRegionOfInterest() RegionOfInterest {
	return RegionOfInterest{
		Index:    1,
		XOrigin:  0,
		YOrigin:  0,
		XSize:    1024,
		YSize:    256,
		XBinning: 1,
		YBinning: 256,
	}
}

// Validate checks the region for values the ICL would reject.
func (r RegionOfInterest) Validate() error {
	switch {
	case r.Index < 1:
		return fmt.Errorf("%w: index %d must be at least 1", ErrInvalidRegion, r.Index)
	case r.XOrigin < 0 || r.YOrigin < 0:
		return fmt.Errorf("%w: negative origin (%d, %d)", ErrInvalidRegion, r.XOrigin, r.YOrigin)
	case r.XSize < 1 || r.YSize < 1:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidRegion, r.XSize, r.YSize)
	case r.XBinning < 1 || r.YBinning < 1:
		return fmt.Errorf("%w: binning %dx%d", ErrInvalidRegion, r.XBinning, r.YBinning)
	case r.XBinning > r.XSize || r.YBinning > r.YSize:
		return fmt.Errorf("%w: binning %dx%d exceeds size %dx%d", ErrInvalidRegion,
			r.XBinning, r.YBinning, r.XSize, r.YSize)
	}
	return nil
}

// FitsChip reports whether the region lies within a chip of the given size.
func (r RegionOfInterest) FitsChip(width, height int) bool {
	return r.XOrigin+r.XSize <= width && r.YOrigin+r.YSize <= height
}

// Columns returns the number of points per row after binning.
func (r RegionOfInterest) Columns() int {
	if r.XBinning < 1 {
		return 0
	}
	return r.XSize / r.XBinning
}

// Rows returns the number of rows after binning.
func (r RegionOfInterest) Rows() int {
	if r.YBinning < 1 {
		return 0
	}
	return r.YSize / r.YBinning
}

func (r RegionOfInterest) parameters() map[string]any {
	return map[string]any{
		"roiIndex": r.Index,
		"xOrigin":  r.XOrigin,
		"yOrigin":  r.YOrigin,
		"xSize":    r.XSize,
		"ySize":    r.YSize,
		"xBin":     r.XBinning,
		"yBin":     r.YBinning,
	}
}
