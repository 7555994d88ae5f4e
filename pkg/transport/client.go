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

// ClientConfig configures a connection to the ICL.
type ClientConfig struct {
	// URL of the ICL WebSocket endpoint (default: ws://127.0.0.1:25010).
	URL string

	// ConnectTimeout bounds dialing and the WebSocket handshake (default: 30s).
	ConnectTimeout time.Duration

	// WriteTimeout bounds a single frame write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the largest frame accepted (default: 1 MiB).
	MaxMessageSize int64

	KeepAlive KeepAliveConfig

	// Header is sent with the handshake request.
	Header http.Header

	// Logger captures frames and connection state (optional).
	Logger log.Logger
}

// DefaultClientConfig returns the configuration for a local ICL.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:            DefaultURL,
		ConnectTimeout: 30 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: DefaultMaxMessageSize,
		KeepAlive:      DefaultKeepAliveConfig(),
	}
}

// Client dials the ICL.
type Client struct {
	config ClientConfig
	dialer *websocket.Dialer
}

// NewClient creates a client. Zero config fields take their defaults.
func NewClient(config ClientConfig) (*Client, error) {
	def := DefaultClientConfig()
	if config.URL == "" {
		config.URL = def.URL
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}
	if err := ValidateURL(config.URL); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.ConnectTimeout,
		},
	}, nil
}

// URL returns the endpoint the client dials.
func (c *Client) URL() string {
	return c.config.URL
}

// Connect dials the ICL and completes the WebSocket handshake.
func (c *Client) Connect(ctx context.Context) (*ClientConn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	ws, resp, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s failed (HTTP %d): %w", c.config.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s failed: %w", c.config.URL, err)
	}
	ws.SetReadLimit(c.config.MaxMessageSize)

	conn := &ClientConn{
		ws:      ws,
		config:  c.config,
		connID:  log.NewConnectionID(),
		closeCh: make(chan struct{}),
	}
	ws.SetPingHandler(conn.handlePing)
	ws.SetPongHandler(conn.handlePong)

	conn.logState("", "CONNECTED", "")
	return conn, nil
}

// ClientConn is an open connection to the ICL.
//
// Writes are serialized internally. Receive must be called from a single
// goroutine.
type ClientConn struct {
	ws     *websocket.Conn
	config ClientConfig
	connID string

	keepAlive atomic.Pointer[KeepAlive]

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
}

// ConnID returns the identifier used in protocol capture.
func (c *ClientConn) ConnID() string {
	return c.connID
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// Done is closed once the connection is closed.
func (c *ClientConn) Done() <-chan struct{} {
	return c.closeCh
}

// Send writes a text frame.
func (c *ClientConn) Send(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

// SendBinary writes a binary frame.
func (c *ClientConn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *ClientConn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	if c.config.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	c.logFrame(log.DirectionOut, data, messageType == websocket.BinaryMessage)
	return nil
}

// Receive returns the next data frame. A timeout of 0 waits until a frame
// arrives or the connection fails. After a timeout the connection is no
// longer usable and should be closed.
func (c *ClientConn) Receive(timeout time.Duration) (Frame, error) {
	select {
	case <-c.closeCh:
		return Frame{}, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(timeout))
		defer c.ws.SetReadDeadline(time.Time{})
	}

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
				return Frame{}, ErrConnectionClosed
			default:
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				code := ce.Code
				c.logControl(log.DirectionIn, log.ControlMsgClose, &code)
			}
			return Frame{}, err
		}
		ft, ok := frameTypeOf(messageType)
		if !ok {
			continue
		}
		c.logFrame(log.DirectionIn, data, ft == FrameBinary)
		return Frame{Type: ft, Data: data}, nil
	}
}

// SendPing writes a ping control frame carrying seq.
func (c *ClientConn) SendPing(seq uint32) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	deadline := time.Now().Add(c.config.KeepAlive.withDefaults().PongTimeout)
	if err := c.ws.WriteControl(websocket.PingMessage, EncodePingData(seq), deadline); err != nil {
		return err
	}
	c.logControl(log.DirectionOut, log.ControlMsgPing, nil)
	return nil
}

// StartKeepAlive starts ping/pong monitoring. onTimeout runs once when the
// peer stops answering; the connection is closed afterwards.
func (c *ClientConn) StartKeepAlive(ctx context.Context, onTimeout func()) {
	if c.config.KeepAlive.Disabled {
		return
	}
	ka := NewKeepAlive(c.config.KeepAlive, c.SendPing, func() {
		c.logError("keep-alive timeout", "keepalive")
		if onTimeout != nil {
			onTimeout()
		}
		c.Close()
	})
	if !c.keepAlive.CompareAndSwap(nil, ka) {
		return
	}
	ka.Start(ctx)
}

// KeepAliveStats returns keep-alive statistics, if keep-alive is running.
func (c *ClientConn) KeepAliveStats() (KeepAliveStats, bool) {
	ka := c.keepAlive.Load()
	if ka == nil {
		return KeepAliveStats{}, false
	}
	return ka.Stats(), true
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if ka := c.keepAlive.Load(); ka != nil {
			ka.Stop()
		}
		close(c.closeCh)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		code := websocket.CloseNormalClosure
		c.logControl(log.DirectionOut, log.ControlMsgClose, &code)

		err = c.ws.Close()
		c.logState("CONNECTED", "DISCONNECTED", "")
	})
	return err
}

func (c *ClientConn) handlePing(appData string) error {
	c.logControl(log.DirectionIn, log.ControlMsgPing, nil)
	err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	if err == nil {
		c.logControl(log.DirectionOut, log.ControlMsgPong, nil)
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

func (c *ClientConn) handlePong(appData string) error {
	c.logControl(log.DirectionIn, log.ControlMsgPong, nil)
	seq, err := DecodePingData([]byte(appData))
	if err != nil {
		return nil
	}
	if ka := c.keepAlive.Load(); ka != nil {
		ka.PongReceived(seq)
	}
	return nil
}

func (c *ClientConn) remote() string {
	if addr := c.ws.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *ClientConn) logFrame(dir log.Direction, data []byte, binary bool) {
	c.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		RemoteAddr:   c.remote(),
		Frame:        log.NewFrameEvent(data, binary),
	})
}

func (c *ClientConn) logControl(dir log.Direction, typ log.ControlMsgType, closeCode *int) {
	c.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		RemoteAddr:   c.remote(),
		ControlMsg:   &log.ControlMsgEvent{Type: typ, CloseCode: closeCode},
	})
}

func (c *ClientConn) logState(oldState, newState, reason string) {
	c.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remote(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (c *ClientConn) logError(msg, op string) {
	c.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		RemoteAddr:   c.remote(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: msg,
			Context: op,
		},
	})
}
