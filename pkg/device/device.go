package device

import (
	"context"
	"fmt"
	"time"

	"github.com/icl-sdk/icl-go/pkg/communicator"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Device types reported by the ICL device lists.
const (
	TypeCCD           = "CCD"
	TypeMonochromator = "Monochromator"
)

// DefaultPollInterval is used by WaitUntilIdle when no interval is given.
const DefaultPollInterval = 500 * time.Millisecond

// Communicator sends commands to the ICL.
type Communicator interface {
	// Send writes a command without waiting for its response.
	Send(ctx context.Context, cmd *wire.Command) error

	// SendWithResponse writes a command and waits for the matching response.
	SendWithResponse(ctx context.Context, cmd *wire.Command) (*wire.Response, error)
}

var _ Communicator = (*communicator.Communicator)(nil)

// Device is the capability shared by all ICL instruments.
type Device interface {
	// ID returns the device index assigned by the ICL at discovery.
	ID() int

	// DeviceType returns the type string from the device list.
	DeviceType() string

	// SerialNumber returns the serial number from the device list.
	SerialNumber() string

	// Open opens the connection between the ICL and the instrument.
	Open(ctx context.Context) error

	// Close closes the connection between the ICL and the instrument.
	Close(ctx context.Context) error

	// IsOpen asks the ICL whether the instrument connection is open.
	IsOpen(ctx context.Context) (bool, error)
}

// Info is the identity of a discovered device.
type Info struct {
	ID           int    `json:"index" yaml:"index"`
	DeviceType   string `json:"deviceType" yaml:"deviceType"`
	SerialNumber string `json:"serialNumber" yaml:"serialNumber"`
}

// String returns a short description for logs and listings.
func (i Info) String() string {
	if i.SerialNumber == "" {
		return fmt.Sprintf("%s[%d]", i.DeviceType, i.ID)
	}
	return fmt.Sprintf("%s[%d] %s", i.DeviceType, i.ID, i.SerialNumber)
}

// base implements the identity part of Device and the command helpers.
type base struct {
	info Info
	comm Communicator
}

func (b *base) ID() int {
	return b.info.ID
}

func (b *base) DeviceType() string {
	return b.info.DeviceType
}

func (b *base) SerialNumber() string {
	return b.info.SerialNumber
}

// Info returns the device identity.
func (b *base) Info() Info {
	return b.info
}

func (b *base) command(name string, params map[string]any) *wire.Command {
	return wire.NewDeviceCommand(name, b.info.ID, params)
}

// send writes a command without waiting.
func (b *base) send(ctx context.Context, name string, params map[string]any) error {
	return b.comm.Send(ctx, b.command(name, params))
}

// call writes a command and returns the results of its response.
func (b *base) call(ctx context.Context, name string, params map[string]any) (wire.Results, error) {
	resp, err := b.comm.SendWithResponse(ctx, b.command(name, params))
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return wire.Results{}, nil
	}
	return resp.Results, nil
}

func (b *base) callInt(ctx context.Context, name, field string) (int, error) {
	results, err := b.call(ctx, name, nil)
	if err != nil {
		return 0, err
	}
	n, err := results.Int(field)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// callOpen reads the open flag. An absent flag means the device is closed.
func (b *base) callOpen(ctx context.Context, name string) (bool, error) {
	results, err := b.call(ctx, name, nil)
	if err != nil {
		return false, err
	}
	if !results.Has("open") {
		return false, nil
	}
	v, err := results.Bool("open")
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (b *base) callBool(ctx context.Context, name, field string) (bool, error) {
	results, err := b.call(ctx, name, nil)
	if err != nil {
		return false, err
	}
	v, err := results.Bool(field)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (b *base) callFloat(ctx context.Context, name, field string, params map[string]any) (float64, error) {
	results, err := b.call(ctx, name, params)
	if err != nil {
		return 0, err
	}
	v, err := results.Float(field)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// callEnum reads an enum field that the ICL may send as a name or a number.
func callEnum[T ~int](ctx context.Context, b *base, name, field string, parse func(string) (T, error)) (T, error) {
	results, err := b.call(ctx, name, nil)
	if err != nil {
		return 0, err
	}
	return parseField(name, results, field, parse)
}

func parseField[T ~int](name string, results wire.Results, field string, parse func(string) (T, error)) (T, error) {
	s, err := results.String(field)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	v, err := parse(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// waitUntilIdle polls busy until it reports false.
func waitUntilIdle(ctx context.Context, interval time.Duration, busy func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		b, err := busy(ctx)
		if err != nil {
			return err
		}
		if !b {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
