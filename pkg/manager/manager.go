package manager

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/icl-sdk/icl-go/pkg/communicator"
	"github.com/icl-sdk/icl-go/pkg/connection"
	"github.com/icl-sdk/icl-go/pkg/device"
	"github.com/icl-sdk/icl-go/pkg/log"
	"github.com/icl-sdk/icl-go/pkg/transport"
	"github.com/icl-sdk/icl-go/pkg/version"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Config configures a DeviceManager.
type Config struct {
	// Address is the ICL WebSocket URL (default ws://127.0.0.1:25010).
	Address string

	// RequestTimeout bounds each awaited command (default 30s).
	RequestTimeout time.Duration

	// AutoReconnect re-opens a dropped session and runs discovery again.
	AutoReconnect bool

	// Backoff sets the reconnect delays.
	Backoff connection.BackoffConfig

	// ShutdownOnStop sends icl_shutdown before closing the connection.
	ShutdownOnStop bool

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger captures the frames exchanged with the ICL (optional).
	ProtocolLogger log.Logger

	// OnStateChange is called after every session state transition.
	OnStateChange func(oldState, newState connection.State)
}

// ICLInfo is the answer to icl_info.
type ICLInfo struct {
	Version version.Version
	Raw     wire.Results
}

// DeviceManager owns the communicator and the discovered devices.
type DeviceManager struct {
	config Config
	comm   *communicator.Communicator
	conn   *connection.Manager

	mu         sync.RWMutex
	started    bool
	discovered bool
	info       ICLInfo
	ccds       []*device.ChargedCoupledDevice
	monos      []*device.Monochromator
}

// New creates a DeviceManager. No connection is made until Start.
func New(config Config) (*DeviceManager, error) {
	if config.Address == "" {
		config.Address = transport.DefaultURL
	}

	comm, err := communicator.New(communicator.Config{
		URL:            config.Address,
		RequestTimeout: config.RequestTimeout,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	if err != nil {
		return nil, err
	}

	m := &DeviceManager{config: config, comm: comm}
	m.conn = connection.NewManager(m.connect, connection.Config{
		Backoff:       config.Backoff,
		AutoReconnect: config.AutoReconnect,
		Logger:        config.Logger,
		OnStateChange: m.onStateChange,
	})
	return m, nil
}

// Start connects to the ICL and reads its version.
func (m *DeviceManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	if err := m.conn.Connect(ctx); err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return err
	}

	m.logInfo("ICL session started", "url", m.config.Address, "version", m.Version().String())
	return nil
}

// Stop ends the session. With ShutdownOnStop the ICL is asked to exit
// first; a failure to do so is logged and does not stop the close.
func (m *DeviceManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrNotStarted
	}
	m.started = false
	m.mu.Unlock()

	// Closing the manager first keeps the watcher from treating our own
	// close as a lost connection.
	m.conn.Close()

	if m.config.ShutdownOnStop && m.comm.IsOpen() {
		if _, err := m.comm.SendWithResponse(ctx, wire.NewCommand(wire.CmdICLShutdown, nil)); err != nil {
			m.logWarn("icl_shutdown failed", "error", err)
		}
	}
	return m.comm.Close()
}

// State returns the session state.
func (m *DeviceManager) State() connection.State {
	return m.conn.State()
}

// Communicator returns the communicator shared by all devices.
func (m *DeviceManager) Communicator() *communicator.Communicator {
	return m.comm
}

// Version returns the ICL version read at connect.
func (m *DeviceManager) Version() version.Version {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info.Version
}

// Info queries icl_info.
func (m *DeviceManager) Info(ctx context.Context) (ICLInfo, error) {
	resp, err := m.comm.SendWithResponse(ctx, wire.NewCommand(wire.CmdICLInfo, nil))
	if err != nil {
		return ICLInfo{}, err
	}
	info := ICLInfo{Raw: resp.Results}
	s, err := resp.Results.String("version")
	if err != nil {
		return info, fmt.Errorf("%s: %w", wire.CmdICLInfo, err)
	}
	if info.Version, err = version.Parse(s); err != nil {
		return info, fmt.Errorf("%s: %w", wire.CmdICLInfo, err)
	}
	return info, nil
}

// DiscoverDevices asks the ICL to scan for CCDs and monochromators and
// replaces the device lists with the result.
func (m *DeviceManager) DiscoverDevices(ctx context.Context) error {
	ccdInfos, err := m.discover(ctx, wire.CmdCCDDiscover, wire.CmdCCDList, device.TypeCCD)
	if err != nil {
		return err
	}
	monoInfos, err := m.discover(ctx, wire.CmdMonoDiscover, wire.CmdMonoList, device.TypeMonochromator)
	if err != nil {
		return err
	}

	ccds := make([]*device.ChargedCoupledDevice, 0, len(ccdInfos))
	for _, info := range ccdInfos {
		ccds = append(ccds, device.NewChargedCoupledDevice(info, m.comm))
	}
	monos := make([]*device.Monochromator, 0, len(monoInfos))
	for _, info := range monoInfos {
		monos = append(monos, device.NewMonochromator(info, m.comm))
	}

	m.mu.Lock()
	m.ccds = ccds
	m.monos = monos
	m.discovered = true
	m.mu.Unlock()

	m.logInfo("devices discovered", "ccds", len(ccds), "monochromators", len(monos))
	return nil
}

// ChargedCoupledDevices returns the CCDs found by the last discovery.
func (m *DeviceManager) ChargedCoupledDevices() []*device.ChargedCoupledDevice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*device.ChargedCoupledDevice(nil), m.ccds...)
}

// Monochromators returns the monochromators found by the last discovery.
func (m *DeviceManager) Monochromators() []*device.Monochromator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*device.Monochromator(nil), m.monos...)
}

func (m *DeviceManager) discover(ctx context.Context, discoverCmd, listCmd, kind string) ([]device.Info, error) {
	if _, err := m.comm.SendWithResponse(ctx, wire.NewCommand(discoverCmd, nil)); err != nil {
		return nil, err
	}
	resp, err := m.comm.SendWithResponse(ctx, wire.NewCommand(listCmd, nil))
	if err != nil {
		return nil, err
	}
	infos, err := ParseDeviceList(resp.Results, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", listCmd, err)
	}
	return infos, nil
}

// connect opens the communicator and reads the ICL version. After a
// reconnect it also repeats discovery.
func (m *DeviceManager) connect(ctx context.Context) error {
	if !m.comm.IsOpen() {
		if err := m.comm.Open(ctx); err != nil {
			return err
		}
	}

	info, err := m.Info(ctx)
	if err != nil {
		_ = m.comm.Close()
		return err
	}
	if info.Version.Compare(version.MustParse(version.MinimumICL)) < 0 {
		m.logWarn("ICL older than tested minimum", "version", info.Version.String(), "minimum", version.MinimumICL)
	}

	m.mu.Lock()
	m.info = info
	rediscover := m.discovered
	m.mu.Unlock()

	if rediscover {
		if err := m.DiscoverDevices(ctx); err != nil {
			_ = m.comm.Close()
			return err
		}
	}
	return nil
}

func (m *DeviceManager) onStateChange(oldState, newState connection.State) {
	if newState == connection.StateConnected {
		m.conn.Watch(m.comm.Done())
	}
	if newState == connection.StateReconnecting {
		m.logWarn("ICL connection lost", "url", m.config.Address, "error", m.comm.Err())
	}
	if m.config.OnStateChange != nil {
		m.config.OnStateChange(oldState, newState)
	}
}

// ParseDeviceList reads the device identities from a ccd_list or
// mono_list result. The ICL reports them under "devices" as an array;
// older releases send an object keyed by device name instead.
func ParseDeviceList(results wire.Results, kind string) ([]device.Info, error) {
	raw, err := results.Raw("devices")
	if err != nil {
		return parseKeyedList(results, kind)
	}

	var entries []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, e := range v {
			if entry, ok := e.(map[string]any); ok {
				entries = append(entries, entry)
			}
		}
	case []map[string]any:
		entries = v
	default:
		return nil, fmt.Errorf("%w: devices is %T", ErrNoDeviceList, raw)
	}

	infos := make([]device.Info, 0, len(entries))
	for i, entry := range entries {
		info, err := entryInfo(wire.Results(entry), i, kind)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func parseKeyedList(results wire.Results, kind string) ([]device.Info, error) {
	var infos []device.Info
	for _, key := range slices.Sorted(maps.Keys(results)) {
		entry, err := results.Map(key)
		if err != nil {
			continue
		}
		info, err := entryInfo(wire.Results(entry), len(infos), kind)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if infos == nil && len(results) > 0 {
		return nil, ErrNoDeviceList
	}
	return infos, nil
}

func entryInfo(entry wire.Results, position int, kind string) (device.Info, error) {
	info := device.Info{ID: position, DeviceType: kind}
	if entry.Has("index") {
		id, err := entry.Int("index")
		if err != nil {
			return device.Info{}, err
		}
		info.ID = id
	}
	if s, err := entry.String("deviceType"); err == nil && strings.TrimSpace(s) != "" {
		info.DeviceType = s
	}
	if s, err := entry.String("serialNumber"); err == nil {
		info.SerialNumber = s
	}
	return info, nil
}

func (m *DeviceManager) logInfo(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, args...)
	}
}

func (m *DeviceManager) logWarn(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Warn(msg, args...)
	}
}
