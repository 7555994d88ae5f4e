package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/icl-sdk/icl-go/pkg/device"
	icllog "github.com/icl-sdk/icl-go/pkg/log"
	"github.com/icl-sdk/icl-go/pkg/manager"
)

// session is a connected device manager for one icl-ctl invocation.
type session struct {
	mgr            *manager.DeviceManager
	protocolLogger *icllog.FileLogger
}

// openSession connects to the ICL and, when discover is set, runs device
// discovery.
func openSession(ctx context.Context, discover bool) (*session, error) {
	s := &session{}
	mc := cfg.ManagerConfig()
	mc.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	var protocolLoggers []icllog.Logger
	if cfg.ProtocolLog != "" {
		fl, err := icllog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		s.protocolLogger = fl
		protocolLoggers = append(protocolLoggers, fl)
	}
	if cfg.Level() <= slog.LevelDebug {
		protocolLoggers = append(protocolLoggers, icllog.NewSlogAdapter(mc.Logger))
	}
	if len(protocolLoggers) > 0 {
		mc.ProtocolLogger = icllog.NewMultiLogger(protocolLoggers...)
	}

	mgr, err := manager.New(mc)
	if err != nil {
		s.closeLog()
		return nil, err
	}
	if err := mgr.Start(ctx); err != nil {
		s.closeLog()
		return nil, fmt.Errorf("connecting to %s: %w", mc.Address, err)
	}
	s.mgr = mgr

	if discover {
		if err := mgr.DiscoverDevices(ctx); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

// Close stops the manager and closes the capture file.
func (s *session) Close(ctx context.Context) {
	if s.mgr != nil {
		_ = s.mgr.Stop(ctx)
	}
	s.closeLog()
}

func (s *session) closeLog() {
	if s.protocolLogger != nil {
		_ = s.protocolLogger.Close()
	}
}

// ccd returns the discovered CCD with the given index argument.
func (s *session) ccd(arg string) (*device.ChargedCoupledDevice, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid CCD index %q", arg)
	}
	for _, d := range s.mgr.ChargedCoupledDevices() {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no CCD with index %d", id)
}

// mono returns the discovered monochromator with the given index argument.
func (s *session) mono(arg string) (*device.Monochromator, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid monochromator index %q", arg)
	}
	for _, d := range s.mgr.Monochromators() {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no monochromator with index %d", id)
}

// withSession runs fn on a fresh session.
func withSession(ctx context.Context, discover bool, fn func(*session) error) error {
	s, err := openSession(ctx, discover)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	return fn(s)
}
