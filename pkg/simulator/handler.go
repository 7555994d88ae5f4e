package simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/icl-sdk/icl-go/pkg/catalog"
	"github.com/icl-sdk/icl-go/pkg/version"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

var errUnsupported = errors.New("command not supported by the simulator")

// Handler answers ICL commands from the simulated instrument state.
// It is safe for concurrent use; commands are applied one at a time.
type Handler struct {
	mu sync.Mutex

	profile Profile
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time

	ccds  []*ccd
	monos []*mono

	ccdsDiscovered  bool
	monosDiscovered bool
	binMode         int

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// NewHandler creates a handler for the instruments in profile.
func NewHandler(profile Profile, logger *slog.Logger) (*Handler, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.applyDefaults()

	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		profile:  profile,
		catalog:  cat,
		logger:   logger,
		now:      time.Now,
		shutdown: make(chan struct{}),
	}
	for i, p := range profile.CCDs {
		h.ccds = append(h.ccds, newCCD(i, p))
	}
	for i, p := range profile.Monochromators {
		h.monos = append(h.monos, newMono(i, p))
	}
	return h, nil
}

// Profile returns the profile the handler was created with.
func (h *Handler) Profile() Profile {
	return h.profile
}

// ShutdownRequested is closed once a client has sent icl_shutdown.
func (h *Handler) ShutdownRequested() <-chan struct{} {
	return h.shutdown
}

// HandleCommand applies cmd and returns the response to send.
func (h *Handler) HandleCommand(cmd *wire.Command) *wire.Response {
	resp := &wire.Response{ID: cmd.ID, Command: cmd.Name, Results: wire.Results{}, Errors: []string{}}

	results, err := h.dispatch(cmd)
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
		h.debug("command failed", "command", cmd.Name, "id", cmd.ID, "error", err)
		return resp
	}
	for k, v := range results {
		resp.Results[k] = v
	}
	h.debug("command handled", "command", cmd.Name, "id", cmd.ID)
	return resp
}

func (h *Handler) dispatch(cmd *wire.Command) (wire.Results, error) {
	def, ok := h.catalog.Lookup(cmd.Name)
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", cmd.Name)
	}
	if missing := def.MissingParameters(cmd); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing parameters: %s", cmd.Name, strings.Join(missing, ", "))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	params := wire.Results(cmd.Parameters)
	switch def.Family() {
	case wire.FamilyICL:
		return h.handleICL(cmd, params)
	case wire.FamilyCCD:
		return h.handleCCD(cmd, params)
	case wire.FamilyMono:
		return h.handleMono(cmd, params)
	}
	return nil, errUnsupported
}

func (h *Handler) handleICL(cmd *wire.Command, params wire.Results) (wire.Results, error) {
	switch cmd.Name {
	case wire.CmdICLInfo:
		return wire.Results{
			"version":   h.profile.Version,
			"simulator": version.SDK,
		}, nil
	case wire.CmdICLBinMode:
		return nil, setToken(params, "mode", &h.binMode, 0, 1)
	case wire.CmdICLShutdown:
		h.shutdownOnce.Do(func() { close(h.shutdown) })
		return nil, nil
	}
	return nil, errUnsupported
}

func (h *Handler) handleCCD(cmd *wire.Command, params wire.Results) (wire.Results, error) {
	switch cmd.Name {
	case wire.CmdCCDDiscover:
		h.ccdsDiscovered = true
		return wire.Results{"count": len(h.ccds)}, nil
	case wire.CmdCCDList:
		devices := []map[string]any{}
		if h.ccdsDiscovered {
			for _, c := range h.ccds {
				devices = append(devices, c.listEntry())
			}
		}
		return wire.Results{"devices": devices}, nil
	case wire.CmdCCDListCount:
		return wire.Results{"count": discoveredCount(h.ccdsDiscovered, len(h.ccds))}, nil
	}

	idx, err := h.deviceIndex(cmd, h.ccdsDiscovered, len(h.ccds), "ccd")
	if err != nil {
		return nil, err
	}
	return h.ccds[idx].handle(cmd, params, h)
}

func (h *Handler) handleMono(cmd *wire.Command, params wire.Results) (wire.Results, error) {
	switch cmd.Name {
	case wire.CmdMonoDiscover:
		h.monosDiscovered = true
		return wire.Results{"count": len(h.monos)}, nil
	case wire.CmdMonoList:
		devices := []map[string]any{}
		if h.monosDiscovered {
			for _, m := range h.monos {
				devices = append(devices, m.listEntry())
			}
		}
		return wire.Results{"devices": devices}, nil
	case wire.CmdMonoListCount:
		return wire.Results{"count": discoveredCount(h.monosDiscovered, len(h.monos))}, nil
	}

	idx, err := h.deviceIndex(cmd, h.monosDiscovered, len(h.monos), "monochromator")
	if err != nil {
		return nil, err
	}
	return h.monos[idx].handle(cmd, params, h)
}

func (h *Handler) deviceIndex(cmd *wire.Command, discovered bool, n int, kind string) (int, error) {
	idx, ok := cmd.DeviceID()
	if !ok {
		return 0, fmt.Errorf("%s: invalid device index %v", cmd.Name, cmd.Parameters[wire.KeyIndex])
	}
	if !discovered || idx < 0 || idx >= n {
		return 0, fmt.Errorf("%s %d not found", kind, idx)
	}
	return idx, nil
}

// centreWavelength is the position of the first monochromator, which the
// CCD x axis is calibrated around.
func (h *Handler) centreWavelength() float64 {
	if len(h.monos) == 0 {
		return 500
	}
	return h.monos[0].wavelength
}

func discoveredCount(discovered bool, n int) int {
	if !discovered {
		return 0
	}
	return n
}

func (h *Handler) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
