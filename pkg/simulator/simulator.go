package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/icl-sdk/icl-go/pkg/discovery"
	"github.com/icl-sdk/icl-go/pkg/log"
	"github.com/icl-sdk/icl-go/pkg/transport"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// Config configures a Simulator.
type Config struct {
	// Address to listen on (default "127.0.0.1:25010"). Use
	// "127.0.0.1:0" for a random port.
	Address string

	// Profile lists the simulated instruments (default DefaultProfile()).
	Profile *Profile

	// Advertise announces the endpoint via mDNS.
	Advertise bool

	// Instance is the mDNS instance name (default "ICL-<hostname>").
	Instance string

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger captures the frames exchanged with clients (optional).
	ProtocolLogger log.Logger
}

// Simulator is an in-process ICL serving the WebSocket protocol.
type Simulator struct {
	config     Config
	handler    *Handler
	server     *transport.Server
	advertiser *discovery.Advertiser

	mu      sync.Mutex
	started bool
}

// New creates a simulator. It does not listen until Start.
func New(config Config) (*Simulator, error) {
	if config.Address == "" {
		config.Address = fmt.Sprintf("127.0.0.1:%d", transport.DefaultPort)
	}
	profile := DefaultProfile()
	if config.Profile != nil {
		profile = *config.Profile
	}

	handler, err := NewHandler(profile, config.Logger)
	if err != nil {
		return nil, err
	}

	s := &Simulator{config: config, handler: handler}
	s.server, err = transport.NewServer(transport.ServerConfig{
		Address:      config.Address,
		Logger:       config.ProtocolLogger,
		OnConnect:    s.onConnect,
		OnDisconnect: s.onDisconnect,
		OnMessage:    s.onMessage,
		OnError:      s.onError,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins serving and, if configured, advertising.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("simulator already started")
	}
	if err := s.server.Start(ctx); err != nil {
		return err
	}
	s.started = true
	s.info("ICL simulator listening", "url", s.server.URL(),
		"ccds", len(s.handler.ccds), "monochromators", len(s.handler.monos))

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			s.server.Stop()
			s.started = false
			return err
		}
	}
	return nil
}

// Stop withdraws the advertisement and closes all connections.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	if s.advertiser != nil {
		s.advertiser.Stop()
	}
	return s.server.Stop()
}

// URL returns the ws:// address clients connect to.
func (s *Simulator) URL() string {
	return s.server.URL()
}

// Addr returns the listener address. It is nil before Start.
func (s *Simulator) Addr() net.Addr {
	return s.server.Addr()
}

// Handler returns the command handler holding the instrument state.
func (s *Simulator) Handler() *Handler {
	return s.handler
}

// ShutdownRequested is closed once a client has sent icl_shutdown.
func (s *Simulator) ShutdownRequested() <-chan struct{} {
	return s.handler.ShutdownRequested()
}

// ConnectionCount returns the number of connected clients.
func (s *Simulator) ConnectionCount() int {
	return s.server.ConnectionCount()
}

func (s *Simulator) advertise() error {
	addr, ok := s.server.Addr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("cannot advertise listener address %v", s.server.Addr())
	}

	instance := s.config.Instance
	if instance == "" {
		host, _ := os.Hostname()
		instance = "ICL-" + host
	}
	if len(instance) > discovery.MaxInstanceNameLen {
		instance = instance[:discovery.MaxInstanceNameLen]
	}

	s.advertiser = discovery.NewAdvertiser(discovery.DefaultAdvertiserConfig())
	err := s.advertiser.Advertise(&discovery.Info{
		Instance: instance,
		Port:     uint16(addr.Port),
		Version:  s.handler.profile.Version,
		Name:     "simulator",
	})
	if err != nil {
		return err
	}
	s.info("advertising via mDNS", "instance", instance, "service", discovery.ServiceType)
	return nil
}

func (s *Simulator) onMessage(conn *transport.ServerConn, frame transport.Frame) {
	if frame.Type != transport.FrameText {
		s.warn("ignoring binary frame", "conn_id", conn.ConnID(), "size", len(frame.Data))
		return
	}

	cmd, err := wire.DecodeCommand(frame.Data)
	if err != nil {
		id, perr := wire.PeekID(frame.Data)
		if perr != nil {
			s.warn("dropping command without id", "conn_id", conn.ConnID(), "error", err)
			return
		}
		s.warn("undecodable command", "conn_id", conn.ConnID(), "id", id, "error", err)
		s.reply(conn, &wire.Response{ID: id, Results: wire.Results{}, Errors: []string{err.Error()}})
		return
	}

	s.reply(conn, s.handler.HandleCommand(cmd))
}

func (s *Simulator) reply(conn *transport.ServerConn, resp *wire.Response) {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		s.warn("encoding response failed", "command", resp.Command, "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		s.warn("sending response failed", "command", resp.Command, "error", err)
	}
}

func (s *Simulator) onConnect(conn *transport.ServerConn) {
	s.info("client connected", "conn_id", conn.ConnID(), "remote", conn.RemoteAddr())
}

func (s *Simulator) onDisconnect(conn *transport.ServerConn) {
	s.info("client disconnected", "conn_id", conn.ConnID())
}

func (s *Simulator) onError(conn *transport.ServerConn, err error) {
	if conn == nil {
		s.warn("server error", "error", err)
		return
	}
	s.warn("connection error", "conn_id", conn.ConnID(), "error", err)
}

func (s *Simulator) info(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, args...)
	}
}

func (s *Simulator) warn(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg, args...)
	}
}
