package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/icl-sdk/icl-go/pkg/device"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Timer resolution tokens.
const (
	timerResolutionMillis = 0
	timerResolutionMicros = 1
)

// ccd is the state of one simulated CCD.
type ccd struct {
	profile CCDProfile
	index   int
	open    bool

	gain            int
	speed           int
	exposure        int
	timerResolution int
	averages        int
	conversion      int
	fitParams       string
	format          int
	numberOfRois    int
	acqCount        int
	cleanCount      int
	cleanMode       int
	regions         map[int]device.RegionOfInterest

	busyUntil time.Time
	started   bool
	data      []device.AcquisitionDescription
	acquired  int
}

func newCCD(index int, profile CCDProfile) *ccd {
	return &ccd{
		profile:         profile,
		index:           index,
		exposure:        100,
		timerResolution: timerResolutionMillis,
		averages:        1,
		fitParams:       "0,1,0,0,0",
		acqCount:        1,
		cleanCount:      1,
		cleanMode:       int(device.CleanCountModeMode1),
		regions:         make(map[int]device.RegionOfInterest),
	}
}

func (c *ccd) listEntry() map[string]any {
	return map[string]any{
		"deviceType":   c.profile.Model,
		"index":        c.index,
		"productId":    c.profile.ProductID,
		"serialNumber": c.profile.SerialNumber,
	}
}

func (c *ccd) configuration() map[string]any {
	return map[string]any{
		"serialNumber": c.profile.SerialNumber,
		"productId":    c.profile.ProductID,
		"chipWidth":    c.profile.Width,
		"chipHeight":   c.profile.Height,
		"gains":        []int{int(device.GainHighLight), int(device.GainBestDynamicRange), int(device.GainHighSensitivity)},
		"speeds":       []int{int(device.SpeedSlow), int(device.SpeedMedium), int(device.SpeedFast)},
	}
}

func (c *ccd) exposureDuration() time.Duration {
	unit := time.Millisecond
	if c.timerResolution == timerResolutionMicros {
		unit = time.Microsecond
	}
	return time.Duration(c.exposure) * unit
}

func (c *ccd) busy(now time.Time) bool {
	return c.started && now.Before(c.busyUntil)
}

// sortedRegions returns the configured regions by index, limited to the
// number of regions set by ccd_setAcqFormat.
func (c *ccd) sortedRegions() []device.RegionOfInterest {
	out := make([]device.RegionOfInterest, 0, len(c.regions))
	for _, r := range c.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	if c.numberOfRois > 0 && len(out) > c.numberOfRois {
		out = out[:c.numberOfRois]
	}
	return out
}

func (c *ccd) ready(now time.Time) bool {
	return !c.busy(now) && len(c.regions) > 0
}

// start begins an acquisition. The data is generated up front and becomes
// readable once the exposure time has elapsed.
func (c *ccd) start(now time.Time, p *Profile, centre float64) error {
	if c.busy(now) {
		return fmt.Errorf("acquisition already running")
	}
	regions := c.sortedRegions()
	if len(regions) == 0 {
		return fmt.Errorf("no region of interest set")
	}

	count := max(c.acqCount, 1)
	c.data = make([]device.AcquisitionDescription, count)
	for i := range count {
		c.acquired++
		acq := device.AcquisitionDescription{
			Index:     i + 1,
			Timestamp: now.Add(time.Duration(i) * c.exposureDuration()).Format("2006.01.02 15:04:05.000"),
		}
		for _, roi := range regions {
			acq.Regions = append(acq.Regions, c.readout(roi, centre, uint64(c.acquired)))
		}
		c.data[i] = acq
	}

	c.started = true
	c.busyUntil = now.Add(p.scaled(time.Duration(count) * c.exposureDuration()))
	return nil
}

func (c *ccd) abort() {
	c.busyUntil = time.Time{}
	c.data = nil
}

// readout produces one region's data: a gaussian line on a flat baseline,
// scaled by exposure time and gain, with shot-like noise.
func (c *ccd) readout(roi device.RegionOfInterest, centre float64, seed uint64) device.RegionData {
	cols, rows := roi.Columns(), roi.Rows()
	rng := rand.New(rand.NewPCG(seed, uint64(roi.Index)))

	region := device.RegionData{
		Index:    roi.Index,
		XOrigin:  roi.XOrigin,
		YOrigin:  roi.YOrigin,
		XSize:    roi.XSize,
		YSize:    roi.YSize,
		XBinning: roi.XBinning,
		YBinning: roi.YBinning,
		XData:    make([]float64, cols),
		YData:    make([][]float64, rows),
	}

	pixelCentre := float64(c.profile.Width) / 2
	for i := range cols {
		pixel := float64(roi.XOrigin + i*roi.XBinning)
		if c.conversion == int(device.ConversionNone) {
			region.XData[i] = pixel
		} else {
			// Linear dispersion of 0.05 nm per pixel around the grating centre.
			region.XData[i] = math.Round((centre+(pixel-pixelCentre)*0.05)*1000) / 1000
		}
	}

	scale := float64(c.exposure) / 100 * float64(roi.YBinning) * float64(c.gain+1)
	for r := range rows {
		row := make([]float64, cols)
		for i := range cols {
			pixel := float64(roi.XOrigin + i*roi.XBinning)
			peak := 1000 * math.Exp(-math.Pow(pixel-pixelCentre, 2)/(2*40*40))
			row[i] = math.Round(600 + (peak+rng.Float64()*20)*scale)
		}
		region.YData[r] = row
	}
	return region
}

// dataSize is the number of points of one acquisition.
func (c *ccd) dataSize() int {
	size := 0
	for _, r := range c.sortedRegions() {
		size += r.Columns() * r.Rows()
	}
	return size
}

func (c *ccd) handle(cmd *wire.Command, params wire.Results, h *Handler) (wire.Results, error) {
	now := h.now()

	switch cmd.Name {
	case wire.CmdCCDOpen:
		c.open = true
		return nil, nil
	case wire.CmdCCDClose:
		c.open = false
		return nil, nil
	case wire.CmdCCDIsOpen:
		return wire.Results{"open": c.open}, nil
	}

	if !c.open {
		return nil, fmt.Errorf("ccd %d is not open", c.index)
	}

	switch cmd.Name {
	case wire.CmdCCDRestart:
		*c = *newCCD(c.index, c.profile)
		c.open = true
		return nil, nil
	case wire.CmdCCDGetConfig:
		return wire.Results{"configuration": c.configuration()}, nil
	case wire.CmdCCDGetTemperature:
		return wire.Results{"temperature": c.profile.Temperature}, nil
	case wire.CmdCCDGetChipSize:
		return wire.Results{"x": c.profile.Width, "y": c.profile.Height}, nil

	case wire.CmdCCDGetSpeed:
		return wire.Results{"info": c.speed}, nil
	case wire.CmdCCDSetSpeed:
		return nil, setToken(params, "token", &c.speed, 0, 2)
	case wire.CmdCCDGetGain:
		return wire.Results{"info": c.gain}, nil
	case wire.CmdCCDSetGain:
		return nil, setToken(params, "token", &c.gain, 0, 2)

	case wire.CmdCCDGetExposureTime:
		return wire.Results{"time": c.exposure}, nil
	case wire.CmdCCDSetExposureTime:
		return nil, setToken(params, "time", &c.exposure, 0, math.MaxInt32)
	case wire.CmdCCDGetTimerResolution:
		return wire.Results{"resolution": c.timerResolution}, nil
	case wire.CmdCCDSetTimerResolution:
		return nil, setToken(params, "resolution", &c.timerResolution, timerResolutionMillis, timerResolutionMicros)
	case wire.CmdCCDGetNumberOfAvgs:
		return wire.Results{"count": c.averages}, nil
	case wire.CmdCCDSetNumberOfAvgs:
		return nil, setToken(params, "count", &c.averages, 1, math.MaxInt32)
	case wire.CmdCCDGetXAxisConversionType:
		return wire.Results{"type": c.conversion}, nil
	case wire.CmdCCDSetXAxisConversionType:
		return nil, setToken(params, "type", &c.conversion, 0, 2)

	case wire.CmdCCDGetFitParams:
		return wire.Results{"params": c.fitParams}, nil
	case wire.CmdCCDSetFitParams:
		s, err := params.String("params")
		if err != nil {
			return nil, err
		}
		c.fitParams = s
		return nil, nil

	case wire.CmdCCDSetAcqFormat:
		if err := setToken(params, "format", &c.format, 0, 3); err != nil {
			return nil, err
		}
		return nil, setToken(params, "numberOfRois", &c.numberOfRois, 1, math.MaxInt32)
	case wire.CmdCCDGetAcqCount:
		return wire.Results{"count": c.acqCount}, nil
	case wire.CmdCCDSetAcqCount:
		return nil, setToken(params, "count", &c.acqCount, 1, math.MaxInt32)
	case wire.CmdCCDGetCleanCount:
		return wire.Results{"count": c.cleanCount, "mode": c.cleanMode}, nil
	case wire.CmdCCDSetCleanCount:
		if err := setToken(params, "count", &c.cleanCount, 0, math.MaxInt32); err != nil {
			return nil, err
		}
		return nil, setToken(params, "mode", &c.cleanMode, 0, math.MaxInt32)
	case wire.CmdCCDGetDataSize:
		return wire.Results{"size": c.dataSize()}, nil

	case wire.CmdCCDSetRoi:
		return nil, c.setRegion(params)
	case wire.CmdCCDGetAcquisitionReady:
		return wire.Results{"ready": c.ready(now)}, nil
	case wire.CmdCCDSetAcquisitionStart:
		return nil, c.start(now, &h.profile, h.centreWavelength())
	case wire.CmdCCDGetAcquisitionBusy:
		return wire.Results{"isBusy": c.busy(now)}, nil
	case wire.CmdCCDSetAcquisitionAbort:
		c.abort()
		return nil, nil
	case wire.CmdCCDGetAcquisitionData:
		if c.busy(now) {
			return nil, fmt.Errorf("acquisition still running")
		}
		if c.data == nil {
			return nil, fmt.Errorf("no acquisition data available")
		}
		return wire.Results{device.AcquisitionField: c.data}, nil
	}

	return nil, errUnsupported
}

func (c *ccd) setRegion(params wire.Results) error {
	var roi device.RegionOfInterest
	fields := []struct {
		name string
		dst  *int
	}{
		{"roiIndex", &roi.Index},
		{"xOrigin", &roi.XOrigin},
		{"yOrigin", &roi.YOrigin},
		{"xSize", &roi.XSize},
		{"ySize", &roi.YSize},
		{"xBin", &roi.XBinning},
		{"yBin", &roi.YBinning},
	}
	for _, f := range fields {
		v, err := params.Int(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if err := roi.Validate(); err != nil {
		return err
	}
	if !roi.FitsChip(c.profile.Width, c.profile.Height) {
		return fmt.Errorf("%w: region exceeds %dx%d chip", device.ErrInvalidRegion, c.profile.Width, c.profile.Height)
	}
	c.regions[roi.Index] = roi
	return nil
}

// setToken reads an integer parameter and stores it when within [lo, hi].
func setToken(params wire.Results, field string, dst *int, lo, hi int) error {
	v, err := params.Int(field)
	if err != nil {
		return err
	}
	if v < lo || v > hi {
		return fmt.Errorf("parameter %s=%d out of range [%d, %d]", field, v, lo, hi)
	}
	*dst = v
	return nil
}
