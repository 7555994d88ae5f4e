package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/icl-sdk/icl-go/pkg/log"
)

// ServerConfig configures a WebSocket server speaking the ICL protocol.
type ServerConfig struct {
	// Address to listen on (default: ":25010"). Use "127.0.0.1:0" for a
	// random local port.
	Address string

	// Path the WebSocket endpoint is served on (default: "/").
	Path string

	// MaxMessageSize is the largest frame accepted (default: 1 MiB).
	MaxMessageSize int64

	// WriteTimeout bounds a single frame write (default: 10s).
	WriteTimeout time.Duration

	// Logger captures frames and connection state (optional).
	Logger log.Logger

	// OnConnect is called when a client has completed the handshake.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called after a client connection has closed.
	OnDisconnect func(conn *ServerConn)

	// OnMessage is called for each data frame, on the connection's read
	// goroutine.
	OnMessage func(conn *ServerConn, frame Frame)

	// OnError is called for read and upgrade failures.
	OnError func(conn *ServerConn, err error)
}

// Server accepts WebSocket clients.
type Server struct {
	config   ServerConfig
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener

	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server. Zero config fields take their defaults.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.Path == "" {
		config.Path = "/"
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}

	s := &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The ICL accepts any origin; so does the simulator.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.Path, s.handleUpgrade)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start starts listening and serving in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("serve failed: %w", err))
			}
		}
	}()

	return nil
}

// Stop stops accepting clients and closes all connections.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	err := s.httpSrv.Close()

	s.connsMu.RLock()
	conns := make([]*ServerConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.RUnlock()
	for _, c := range conns {
		c.Close()
	}

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// URL returns the ws:// URL clients should dial, or "" before Start.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return "ws://" + addr.String() + s.config.Path
}

// ConnectionCount returns the number of open client connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	if !s.running.Load() {
		http.Error(w, "server stopping", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		if s.config.OnError != nil {
			s.config.OnError(nil, fmt.Errorf("upgrade failed: %w", err))
		}
		return
	}
	ws.SetReadLimit(s.config.MaxMessageSize)

	sconn := &ServerConn{
		ws:         ws,
		server:     s,
		connID:     log.NewConnectionID(),
		remoteAddr: ws.RemoteAddr(),
		closeCh:    make(chan struct{}),
	}
	ws.SetPingHandler(sconn.handlePing)

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	// Stop may have taken its snapshot before registration.
	if !s.running.Load() {
		sconn.Close()
	}

	sconn.logState("", "CONNECTED")
	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	sconn.logState("CONNECTED", "DISCONNECTED")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

// ServerConn is a client connected to the server.
type ServerConn struct {
	ws         *websocket.Conn
	server     *Server
	connID     string
	remoteAddr net.Addr

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
}

// RemoteAddr returns the client address.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the identifier used in protocol capture.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Send writes a text frame.
func (c *ServerConn) Send(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

// SendBinary writes a binary frame.
func (c *ServerConn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *ServerConn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	c.logFrame(log.DirectionOut, data, messageType == websocket.BinaryMessage)
	return nil
}

// Close sends a close frame and closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

func (c *ServerConn) readLoop() {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				return
			default:
			}
			if !IsNormalClose(err) && c.server.config.OnError != nil && c.server.running.Load() {
				c.server.config.OnError(c, err)
			}
			return
		}

		ft, ok := frameTypeOf(messageType)
		if !ok {
			continue
		}
		c.logFrame(log.DirectionIn, data, ft == FrameBinary)
		if c.server.config.OnMessage != nil {
			c.server.config.OnMessage(c, Frame{Type: ft, Data: data})
		}
	}
}

func (c *ServerConn) handlePing(appData string) error {
	c.logControl(log.DirectionIn, log.ControlMsgPing)
	err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	if err == nil {
		c.logControl(log.DirectionOut, log.ControlMsgPong)
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return nil
	}
	return err
}

func (c *ServerConn) event(dir log.Direction, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     cat,
		LocalRole:    log.RoleSimulator,
		RemoteAddr:   c.remoteAddr.String(),
	}
}

func (c *ServerConn) logFrame(dir log.Direction, data []byte, binary bool) {
	ev := c.event(dir, log.CategoryMessage)
	ev.Frame = log.NewFrameEvent(data, binary)
	c.server.config.Logger.Log(ev)
}

func (c *ServerConn) logControl(dir log.Direction, typ log.ControlMsgType) {
	ev := c.event(dir, log.CategoryControl)
	ev.ControlMsg = &log.ControlMsgEvent{Type: typ}
	c.server.config.Logger.Log(ev)
}

func (c *ServerConn) logState(oldState, newState string) {
	ev := c.event(log.DirectionIn, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityConnection,
		OldState: oldState,
		NewState: newState,
	}
	c.server.config.Logger.Log(ev)
}
