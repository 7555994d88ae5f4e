package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/icl-sdk/icl-go/pkg/device"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Wavelength range of the simulated turret, in nanometres.
const (
	minWavelength = 0
	maxWavelength = 1500

	// maxSlitWidth is the widest slit opening in millimetres.
	maxSlitWidth = 7
)

// mono is the state of one simulated monochromator.
type mono struct {
	profile MonoProfile
	index   int
	open    bool

	initialized bool
	wavelength  float64
	grating     int
	filters     map[int]int
	mirrors     map[int]int
	slits       map[int]float64
	shutter     int

	busyUntil time.Time
}

func newMono(index int, profile MonoProfile) *mono {
	return &mono{
		profile:    profile,
		index:      index,
		wavelength: profile.Wavelength,
		filters:    make(map[int]int),
		mirrors:    make(map[int]int),
		slits:      make(map[int]float64),
		shutter:    int(device.ShutterClosed),
	}
}

func (m *mono) listEntry() map[string]any {
	return map[string]any{
		"deviceType":   m.profile.Model,
		"index":        m.index,
		"serialNumber": m.profile.SerialNumber,
	}
}

func (m *mono) configuration() map[string]any {
	gratings := make([]map[string]any, m.profile.Gratings)
	for i := range gratings {
		gratings[i] = map[string]any{
			"index":         i,
			"grooveDensity": []int{1200, 600, 150}[i%3],
		}
	}
	return map[string]any{
		"serialNumber":  m.profile.SerialNumber,
		"gratings":      gratings,
		"filterWheels":  2,
		"mirrors":       2,
		"slits":         4,
		"maxWavelength": maxWavelength,
	}
}

func (m *mono) busy(now time.Time) bool {
	return now.Before(m.busyUntil)
}

// move keeps the monochromator busy for one more scaled move duration.
// Moves issued while busy queue behind the running one.
func (m *mono) move(now time.Time, p *Profile) {
	start := now
	if m.busy(now) {
		start = m.busyUntil
	}
	m.busyUntil = start.Add(p.scaled(p.MoveDuration))
}

func (m *mono) handle(cmd *wire.Command, params wire.Results, h *Handler) (wire.Results, error) {
	now := h.now()

	switch cmd.Name {
	case wire.CmdMonoOpen:
		m.open = true
		return nil, nil
	case wire.CmdMonoClose:
		m.open = false
		return nil, nil
	case wire.CmdMonoIsOpen:
		return wire.Results{"open": m.open}, nil
	}

	if !m.open {
		return nil, fmt.Errorf("monochromator %d is not open", m.index)
	}

	switch cmd.Name {
	case wire.CmdMonoIsBusy:
		return wire.Results{"busy": m.busy(now)}, nil
	case wire.CmdMonoInit:
		m.move(now, &h.profile)
		m.initialized = true
		m.wavelength = 0
		m.grating = int(device.GratingFirst)
		return nil, nil
	case wire.CmdMonoGetConfig:
		return wire.Results{"configuration": m.configuration()}, nil
	case wire.CmdMonoGetShutterStatus:
		return wire.Results{"position": m.shutter}, nil
	case wire.CmdMonoShutterOpen:
		m.shutter = int(device.ShutterOpened)
		return nil, nil
	case wire.CmdMonoShutterClose:
		m.shutter = int(device.ShutterClosed)
		return nil, nil
	}

	if !m.initialized {
		return nil, fmt.Errorf("monochromator %d is not initialized", m.index)
	}

	switch cmd.Name {
	case wire.CmdMonoGetPosition:
		return wire.Results{"wavelength": m.wavelength}, nil
	case wire.CmdMonoMoveToPosition:
		wl, err := params.Float("wavelength")
		if err != nil {
			return nil, err
		}
		if wl < minWavelength || wl > maxWavelength {
			return nil, fmt.Errorf("wavelength %v nm outside [%d, %d]", wl, minWavelength, maxWavelength)
		}
		m.move(now, &h.profile)
		m.wavelength = wl
		return nil, nil

	case wire.CmdMonoGetGratingPosition:
		return wire.Results{"position": m.grating}, nil
	case wire.CmdMonoMoveGrating:
		var g int
		if err := setToken(params, "position", &g, 0, m.profile.Gratings-1); err != nil {
			return nil, err
		}
		m.move(now, &h.profile)
		m.grating = g
		return nil, nil

	case wire.CmdMonoGetFilterWheelPosition:
		loc, err := location(params, int(device.FilterWheelSecond))
		if err != nil {
			return nil, err
		}
		return wire.Results{"position": m.filters[loc]}, nil
	case wire.CmdMonoMoveFilterWheel:
		return nil, m.moveLocated(now, h, params, int(device.FilterWheelSecond), int(device.FilterWheelPositionYellow), m.filters)

	case wire.CmdMonoGetMirrorPosition:
		loc, err := location(params, int(device.MirrorExit))
		if err != nil {
			return nil, err
		}
		return wire.Results{"position": m.mirrors[loc]}, nil
	case wire.CmdMonoMoveMirror:
		return nil, m.moveLocated(now, h, params, int(device.MirrorExit), int(device.MirrorPositionLateral), m.mirrors)

	case wire.CmdMonoGetSlitPositionInMM:
		loc, err := location(params, int(device.SlitD))
		if err != nil {
			return nil, err
		}
		return wire.Results{"position": m.slits[loc]}, nil
	case wire.CmdMonoMoveSlitMM:
		loc, err := location(params, int(device.SlitD))
		if err != nil {
			return nil, err
		}
		mm, err := params.Float("position")
		if err != nil {
			return nil, err
		}
		if mm < 0 || mm > maxSlitWidth {
			return nil, fmt.Errorf("slit width %v mm outside [0, %d]", mm, maxSlitWidth)
		}
		m.move(now, &h.profile)
		m.slits[loc] = math.Round(mm*1000) / 1000
		return nil, nil
	}

	return nil, errUnsupported
}

// moveLocated moves the accessory at locationId to an enumerated position.
func (m *mono) moveLocated(now time.Time, h *Handler, params wire.Results, maxLoc, maxPos int, positions map[int]int) error {
	loc, err := location(params, maxLoc)
	if err != nil {
		return err
	}
	var pos int
	if err := setToken(params, "position", &pos, 0, maxPos); err != nil {
		return err
	}
	m.move(now, &h.profile)
	positions[loc] = pos
	return nil
}

func location(params wire.Results, maxLoc int) (int, error) {
	var loc int
	if err := setToken(params, "locationId", &loc, 0, maxLoc); err != nil {
		return 0, err
	}
	return loc, nil
}
