package device

import (
	"context"
	"fmt"
	"time"

	"github.com/icl-sdk/icl-go/pkg/wire"
)

// ChargedCoupledDevice is a CCD detector attached to the ICL.
type ChargedCoupledDevice struct {
	base
}

var _ Device = (*ChargedCoupledDevice)(nil)

// NewChargedCoupledDevice creates a CCD bound to comm.
func NewChargedCoupledDevice(info Info, comm Communicator) *ChargedCoupledDevice {
	if info.DeviceType == "" {
		info.DeviceType = TypeCCD
	}
	return &ChargedCoupledDevice{base: base{info: info, comm: comm}}
}

// IsOpen asks the ICL whether the CCD connection is open.
func (d *ChargedCoupledDevice) IsOpen(ctx context.Context) (bool, error) {
	return d.callOpen(ctx, wire.CmdCCDIsOpen)
}

// Open opens the CCD and waits for the ICL to acknowledge.
func (d *ChargedCoupledDevice) Open(ctx context.Context) error {
	_, err := d.call(ctx, wire.CmdCCDOpen, nil)
	return err
}

// Close closes the CCD. The response is not awaited.
func (d *ChargedCoupledDevice) Close(ctx context.Context) error {
	return d.send(ctx, wire.CmdCCDClose, nil)
}

// Restart restarts the CCD.
func (d *ChargedCoupledDevice) Restart(ctx context.Context) error {
	return d.send(ctx, wire.CmdCCDRestart, nil)
}

// Configuration returns the CCD configuration as reported by the ICL.
func (d *ChargedCoupledDevice) Configuration(ctx context.Context) (wire.Results, error) {
	return d.call(ctx, wire.CmdCCDGetConfig, nil)
}

// ChipTemperature returns the chip temperature in degrees Celsius.
func (d *ChargedCoupledDevice) ChipTemperature(ctx context.Context) (float64, error) {
	return d.callFloat(ctx, wire.CmdCCDGetTemperature, "temperature", nil)
}

// ChipSize returns the chip size in pixels.
func (d *ChargedCoupledDevice) ChipSize(ctx context.Context) (width, height int, err error) {
	results, err := d.call(ctx, wire.CmdCCDGetChipSize, nil)
	if err != nil {
		return 0, 0, err
	}
	if width, err = results.Int("x"); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", wire.CmdCCDGetChipSize, err)
	}
	if height, err = results.Int("y"); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", wire.CmdCCDGetChipSize, err)
	}
	return width, height, nil
}

// Speed returns the readout speed.
func (d *ChargedCoupledDevice) Speed(ctx context.Context) (Speed, error) {
	return callEnum(ctx, &d.base, wire.CmdCCDGetSpeed, "info", ParseSpeed)
}

// SetSpeed sets the readout speed.
func (d *ChargedCoupledDevice) SetSpeed(ctx context.Context, speed Speed) error {
	return d.send(ctx, wire.CmdCCDSetSpeed, map[string]any{"token": int(speed)})
}

// Gain returns the gain setting.
func (d *ChargedCoupledDevice) Gain(ctx context.Context) (Gain, error) {
	return callEnum(ctx, &d.base, wire.CmdCCDGetGain, "info", ParseGain)
}

// SetGain sets the gain.
func (d *ChargedCoupledDevice) SetGain(ctx context.Context, gain Gain) error {
	return d.send(ctx, wire.CmdCCDSetGain, map[string]any{"token": int(gain)})
}

// ExposureTime returns the exposure time in timer resolution units
// (milliseconds by default).
func (d *ChargedCoupledDevice) ExposureTime(ctx context.Context) (int, error) {
	return d.callInt(ctx, wire.CmdCCDGetExposureTime, "time")
}

// SetExposureTime sets the exposure time.
func (d *ChargedCoupledDevice) SetExposureTime(ctx context.Context, exposure int) error {
	return d.send(ctx, wire.CmdCCDSetExposureTime, map[string]any{"time": exposure})
}

// TimerResolution returns the exposure timer resolution.
func (d *ChargedCoupledDevice) TimerResolution(ctx context.Context) (int, error) {
	return d.callInt(ctx, wire.CmdCCDGetTimerResolution, "resolution")
}

// SetTimerResolution sets the exposure timer resolution.
func (d *ChargedCoupledDevice) SetTimerResolution(ctx context.Context, resolution int) error {
	return d.send(ctx, wire.CmdCCDSetTimerResolution, map[string]any{"resolution": resolution})
}

// NumberOfAverages returns how many acquisitions are averaged.
func (d *ChargedCoupledDevice) NumberOfAverages(ctx context.Context) (int, error) {
	return d.callInt(ctx, wire.CmdCCDGetNumberOfAvgs, "count")
}

// SetNumberOfAverages sets how many acquisitions are averaged.
func (d *ChargedCoupledDevice) SetNumberOfAverages(ctx context.Context, count int) error {
	return d.send(ctx, wire.CmdCCDSetNumberOfAvgs, map[string]any{"count": count})
}

// XAxisConversionType returns how the x axis of acquisition data is computed.
func (d *ChargedCoupledDevice) XAxisConversionType(ctx context.Context) (ConversionType, error) {
	return callEnum(ctx, &d.base, wire.CmdCCDGetXAxisConversionType, "type", ParseConversionType)
}

// SetXAxisConversionType sets how the x axis of acquisition data is computed.
func (d *ChargedCoupledDevice) SetXAxisConversionType(ctx context.Context, conversion ConversionType) error {
	return d.send(ctx, wire.CmdCCDSetXAxisConversionType, map[string]any{"type": int(conversion)})
}

// FitParameters returns the x axis fit parameters as reported by the ICL.
func (d *ChargedCoupledDevice) FitParameters(ctx context.Context) (string, error) {
	results, err := d.call(ctx, wire.CmdCCDGetFitParams, nil)
	if err != nil {
		return "", err
	}
	if s, err := results.String("params"); err == nil {
		return s, nil
	}
	raw, err := results.Raw("params")
	if err != nil {
		return "", fmt.Errorf("%s: %w", wire.CmdCCDGetFitParams, err)
	}
	data, err := wire.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", wire.CmdCCDGetFitParams, err)
	}
	return string(data), nil
}

// SetFitParameters sets the x axis fit parameters, a comma separated list.
func (d *ChargedCoupledDevice) SetFitParameters(ctx context.Context, params string) error {
	return d.send(ctx, wire.CmdCCDSetFitParams, map[string]any{"params": params})
}

// SetAcquisitionFormat sets the acquisition format and the number of
// regions of interest that will be configured.
func (d *ChargedCoupledDevice) SetAcquisitionFormat(ctx context.Context, format AcquisitionFormat, numberOfRois int) error {
	return d.send(ctx, wire.CmdCCDSetAcqFormat, map[string]any{
		"format":       int(format),
		"numberOfRois": numberOfRois,
	})
}

// AcquisitionCount returns the number of acquisitions per start.
func (d *ChargedCoupledDevice) AcquisitionCount(ctx context.Context) (int, error) {
	return d.callInt(ctx, wire.CmdCCDGetAcqCount, "count")
}

// SetAcquisitionCount sets the number of acquisitions per start.
func (d *ChargedCoupledDevice) SetAcquisitionCount(ctx context.Context, count int) error {
	return d.send(ctx, wire.CmdCCDSetAcqCount, map[string]any{"count": count})
}

// CleanCount is the number of chip cleans before an acquisition.
type CleanCount struct {
	Count int
	Mode  CleanCountMode
}

func (c CleanCount) String() string {
	return fmt.Sprintf("count: %d mode: %d", c.Count, int(c.Mode))
}

// CleanCount returns the clean count and mode.
func (d *ChargedCoupledDevice) CleanCount(ctx context.Context) (CleanCount, error) {
	results, err := d.call(ctx, wire.CmdCCDGetCleanCount, nil)
	if err != nil {
		return CleanCount{}, err
	}
	count, err := results.Int("count")
	if err != nil {
		return CleanCount{}, fmt.Errorf("%s: %w", wire.CmdCCDGetCleanCount, err)
	}
	mode, err := results.Int("mode")
	if err != nil {
		return CleanCount{}, fmt.Errorf("%s: %w", wire.CmdCCDGetCleanCount, err)
	}
	return CleanCount{Count: count, Mode: CleanCountMode(mode)}, nil
}

// SetCleanCount sets the clean count and mode.
func (d *ChargedCoupledDevice) SetCleanCount(ctx context.Context, count int, mode CleanCountMode) error {
	return d.send(ctx, wire.CmdCCDSetCleanCount, map[string]any{
		"count": count,
		"mode":  int(mode),
	})
}

// DataSize returns the size of the acquisition data.
func (d *ChargedCoupledDevice) DataSize(ctx context.Context) (int, error) {
	return d.callInt(ctx, wire.CmdCCDGetDataSize, "size")
}

// SetRegionOfInterest configures a region of interest. The region is
// validated before it is sent.
func (d *ChargedCoupledDevice) SetRegionOfInterest(ctx context.Context, roi RegionOfInterest) error {
	if err := roi.Validate(); err != nil {
		return err
	}
	return d.send(ctx, wire.CmdCCDSetRoi, roi.parameters())
}

// AcquisitionReady reports whether the CCD is ready to start an acquisition.
func (d *ChargedCoupledDevice) AcquisitionReady(ctx context.Context) (bool, error) {
	return d.callBool(ctx, wire.CmdCCDGetAcquisitionReady, "ready")
}

// StartAcquisition starts an acquisition.
func (d *ChargedCoupledDevice) StartAcquisition(ctx context.Context, openShutter bool) error {
	return d.send(ctx, wire.CmdCCDSetAcquisitionStart, map[string]any{"openShutter": openShutter})
}

// AcquisitionBusy reports whether an acquisition is in progress.
func (d *ChargedCoupledDevice) AcquisitionBusy(ctx context.Context) (bool, error) {
	return d.callBool(ctx, wire.CmdCCDGetAcquisitionBusy, "isBusy")
}

// AbortAcquisition aborts the running acquisition.
func (d *ChargedCoupledDevice) AbortAcquisition(ctx context.Context) error {
	return d.send(ctx, wire.CmdCCDSetAcquisitionAbort, nil)
}

// WaitUntilIdle polls AcquisitionBusy every interval until it reports
// false or ctx is done.
func (d *ChargedCoupledDevice) WaitUntilIdle(ctx context.Context, interval time.Duration) error {
	return waitUntilIdle(ctx, interval, d.AcquisitionBusy)
}

// AcquisitionData returns the raw results of ccd_getAcquisitionData.
func (d *ChargedCoupledDevice) AcquisitionData(ctx context.Context) (wire.Results, error) {
	return d.call(ctx, wire.CmdCCDGetAcquisitionData, nil)
}

// Acquisitions fetches the acquisition data and decodes it.
func (d *ChargedCoupledDevice) Acquisitions(ctx context.Context) ([]AcquisitionDescription, error) {
	results, err := d.AcquisitionData(ctx)
	if err != nil {
		return nil, err
	}
	return ParseAcquisitions(results)
}
