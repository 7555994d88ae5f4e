package device

import (
	"context"
	"fmt"
	"time"

	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Monochromator is a monochromator attached to the ICL.
//
// Movement commands return once the ICL has accepted them; use IsBusy or
// WaitUntilIdle to wait for the motion to finish.
type Monochromator struct {
	base
}

var _ Device = (*Monochromator)(nil)

// NewMonochromator creates a monochromator bound to comm.
func NewMonochromator(info Info, comm Communicator) *Monochromator {
	if info.DeviceType == "" {
		info.DeviceType = TypeMonochromator
	}
	return &Monochromator{base: base{info: info, comm: comm}}
}

// IsOpen asks the ICL whether the monochromator connection is open.
func (d *Monochromator) IsOpen(ctx context.Context) (bool, error) {
	return d.callOpen(ctx, wire.CmdMonoIsOpen)
}

// Open opens the monochromator and waits for the ICL to acknowledge.
func (d *Monochromator) Open(ctx context.Context) error {
	_, err := d.call(ctx, wire.CmdMonoOpen, nil)
	return err
}

// Close closes the monochromator. The response is not awaited.
func (d *Monochromator) Close(ctx context.Context) error {
	return d.send(ctx, wire.CmdMonoClose, nil)
}

// IsBusy reports whether any axis is moving.
func (d *Monochromator) IsBusy(ctx context.Context) (bool, error) {
	return d.callBool(ctx, wire.CmdMonoIsBusy, "busy")
}

// WaitUntilIdle polls IsBusy every interval until it reports false or ctx
// is done.
func (d *Monochromator) WaitUntilIdle(ctx context.Context, interval time.Duration) error {
	return waitUntilIdle(ctx, interval, d.IsBusy)
}

// Initialize homes all axes.
func (d *Monochromator) Initialize(ctx context.Context) error {
	_, err := d.call(ctx, wire.CmdMonoInit, nil)
	return err
}

// Configuration returns the monochromator configuration as reported by
// the ICL.
func (d *Monochromator) Configuration(ctx context.Context) (wire.Results, error) {
	return d.call(ctx, wire.CmdMonoGetConfig, nil)
}

// Wavelength returns the current center wavelength in nanometers.
func (d *Monochromator) Wavelength(ctx context.Context) (float64, error) {
	return d.callFloat(ctx, wire.CmdMonoGetPosition, "wavelength", nil)
}

// MoveToWavelength moves to a center wavelength in nanometers.
func (d *Monochromator) MoveToWavelength(ctx context.Context, wavelength float64) error {
	_, err := d.call(ctx, wire.CmdMonoMoveToPosition, map[string]any{"wavelength": wavelength})
	return err
}

// TurretGrating returns the grating in the beam.
func (d *Monochromator) TurretGrating(ctx context.Context) (Grating, error) {
	return callEnum(ctx, &d.base, wire.CmdMonoGetGratingPosition, "position", ParseGrating)
}

// SetTurretGrating rotates the turret to a grating.
func (d *Monochromator) SetTurretGrating(ctx context.Context, grating Grating) error {
	_, err := d.call(ctx, wire.CmdMonoMoveGrating, map[string]any{"position": int(grating)})
	return err
}

// FilterWheelPosition returns the filter selected on a wheel.
func (d *Monochromator) FilterWheelPosition(ctx context.Context, wheel FilterWheel) (FilterWheelPosition, error) {
	results, err := d.call(ctx, wire.CmdMonoGetFilterWheelPosition, map[string]any{"locationId": int(wheel)})
	if err != nil {
		return 0, err
	}
	return parseField(wire.CmdMonoGetFilterWheelPosition, results, "position", ParseFilterWheelPosition)
}

// SetFilterWheelPosition moves a wheel to a filter.
func (d *Monochromator) SetFilterWheelPosition(ctx context.Context, wheel FilterWheel, position FilterWheelPosition) error {
	_, err := d.call(ctx, wire.CmdMonoMoveFilterWheel, map[string]any{
		"locationId": int(wheel),
		"position":   int(position),
	})
	return err
}

// MirrorPosition returns the position of a mirror.
func (d *Monochromator) MirrorPosition(ctx context.Context, mirror Mirror) (MirrorPosition, error) {
	results, err := d.call(ctx, wire.CmdMonoGetMirrorPosition, map[string]any{"locationId": int(mirror)})
	if err != nil {
		return 0, err
	}
	return parseField(wire.CmdMonoGetMirrorPosition, results, "position", ParseMirrorPosition)
}

// SetMirrorPosition moves a mirror.
func (d *Monochromator) SetMirrorPosition(ctx context.Context, mirror Mirror, position MirrorPosition) error {
	_, err := d.call(ctx, wire.CmdMonoMoveMirror, map[string]any{
		"locationId": int(mirror),
		"position":   int(position),
	})
	return err
}

// SlitPosition returns the opening of a slit in millimeters.
func (d *Monochromator) SlitPosition(ctx context.Context, slit Slit) (float64, error) {
	return d.callFloat(ctx, wire.CmdMonoGetSlitPositionInMM, "position", map[string]any{"locationId": int(slit)})
}

// SetSlitPosition opens a slit to the given width in millimeters.
func (d *Monochromator) SetSlitPosition(ctx context.Context, slit Slit, mm float64) error {
	if mm < 0 {
		return fmt.Errorf("slit %s: negative width %v mm", slit, mm)
	}
	_, err := d.call(ctx, wire.CmdMonoMoveSlitMM, map[string]any{
		"locationId": int(slit),
		"position":   mm,
	})
	return err
}

// OpenShutter opens the shutter.
func (d *Monochromator) OpenShutter(ctx context.Context) error {
	_, err := d.call(ctx, wire.CmdMonoShutterOpen, nil)
	return err
}

// CloseShutter closes the shutter.
func (d *Monochromator) CloseShutter(ctx context.Context) error {
	_, err := d.call(ctx, wire.CmdMonoShutterClose, nil)
	return err
}

// ShutterPosition returns the shutter state.
func (d *Monochromator) ShutterPosition(ctx context.Context) (ShutterPosition, error) {
	return callEnum(ctx, &d.base, wire.CmdMonoGetShutterStatus, "position", ParseShutterPosition)
}
