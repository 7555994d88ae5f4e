package communicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/icl-sdk/icl-go/pkg/log"
	"github.com/icl-sdk/icl-go/pkg/transport"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// DefaultRequestTimeout bounds the wait for a response.
const DefaultRequestTimeout = 30 * time.Second

// Config configures a Communicator.
type Config struct {
	// URL of the ICL (default: ws://127.0.0.1:25010).
	URL string

	// RequestTimeout bounds SendWithResponse when the caller's context has
	// no earlier deadline (default: 30s).
	RequestTimeout time.Duration

	// Transport holds connection settings. Its URL and Logger are taken
	// from this config.
	Transport transport.ClientConfig

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger captures commands, responses and frames. Nil disables it.
	ProtocolLogger log.Logger

	// BinaryHandler receives binary frames pushed by the ICL (optional).
	BinaryHandler func(data []byte)
}

// Communicator sends commands to the ICL and correlates responses.
type Communicator struct {
	config Config
	client *transport.Client

	nextMsgID atomic.Uint32

	mu      sync.RWMutex
	session *session
	closed  bool

	pending   map[uint32]*pendingRequest
	pendingMu sync.Mutex
}

// session is one open connection and its read loop.
type session struct {
	conn *transport.ClientConn
	done chan struct{}
	err  error
}

type pendingRequest struct {
	session *session
	command string
	sent    time.Time
	ch      chan *wire.Response
}

// New creates a Communicator. No connection is made until Open.
func New(config Config) (*Communicator, error) {
	if config.URL == "" {
		config.URL = transport.DefaultURL
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = log.NoopLogger{}
	}

	tc := config.Transport
	if tc.KeepAlive == (transport.KeepAliveConfig{}) {
		tc.KeepAlive = transport.DefaultKeepAliveConfig()
	}
	tc.URL = config.URL
	tc.Logger = config.ProtocolLogger

	client, err := transport.NewClient(tc)
	if err != nil {
		return nil, err
	}

	return &Communicator{
		config:  config,
		client:  client,
		pending: make(map[uint32]*pendingRequest),
	}, nil
}

// URL returns the ICL address.
func (c *Communicator) URL() string {
	return c.config.URL
}

// Open connects to the ICL and starts the read loop.
// A Communicator whose connection dropped can be opened again.
func (c *Communicator) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && !c.session.finished() {
		return ErrAlreadyOpen
	}

	conn, err := c.client.Connect(ctx)
	if err != nil {
		return err
	}

	s := &session{conn: conn, done: make(chan struct{})}
	c.session = s
	c.closed = false

	go c.readLoop(s)
	// The keep-alive outlives the Open call's context.
	conn.StartKeepAlive(context.Background(), func() {
		c.warn("ICL stopped answering pings", "url", c.config.URL)
	})

	c.info("connected to ICL", "url", c.config.URL, "conn_id", conn.ConnID())
	return nil
}

// Close closes the connection. Pending requests fail with
// ErrCommunicatorClosed. Close is safe to call more than once.
func (c *Communicator) Close() error {
	c.mu.Lock()
	s := c.session
	c.closed = true
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	err := s.conn.Close()
	<-s.done
	return err
}

// IsOpen returns true while the connection is up.
func (c *Communicator) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil && !c.session.finished()
}

// Done returns a channel that is closed when the current connection ends,
// either by Close or by the ICL going away. It is already closed when the
// communicator is not open.
func (c *Communicator) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.session.done
}

// Err returns why the last connection ended, or nil while it is open or
// after an explicit Close.
func (c *Communicator) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || !c.session.finished() {
		return nil
	}
	return c.session.err
}

// SetBinaryHandler replaces the handler for binary frames.
func (c *Communicator) SetBinaryHandler(handler func(data []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.BinaryHandler = handler
}

// Send writes a command without waiting for its response.
// The message id is assigned here and returned in cmd.ID.
func (c *Communicator) Send(ctx context.Context, cmd *wire.Command) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd.ID = c.nextMessageID()
	return c.write(s.conn, cmd)
}

// SendWithResponse writes a command and waits for the response with the
// same message id. A response carrying vendor errors is returned together
// with a *wire.CommandError.
func (c *Communicator) SendWithResponse(ctx context.Context, cmd *wire.Command) (*wire.Response, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd.ID = c.nextMessageID()
	req := &pendingRequest{
		session: s,
		command: cmd.Name,
		sent:    time.Now(),
		ch:      make(chan *wire.Response, 1),
	}

	c.pendingMu.Lock()
	c.pending[cmd.ID] = req
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, cmd.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.write(s.conn, cmd); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.config.RequestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		c.warn("request timed out", "command", cmd.Name, "id", cmd.ID, "timeout", c.config.RequestTimeout)
		return nil, fmt.Errorf("%s (id %d): %w", cmd.Name, cmd.ID, ErrRequestTimeout)
	case resp, ok := <-req.ch:
		if !ok {
			return nil, c.closedErr()
		}
		if resp.Command != "" && resp.Command != cmd.Name {
			return nil, fmt.Errorf("%w: sent %s (id %d), got %s", ErrUnexpectedResponse, cmd.Name, cmd.ID, resp.Command)
		}
		if err := resp.Err(); err != nil {
			return resp, err
		}
		return resp, nil
	}
}

func (c *Communicator) nextMessageID() uint32 {
	id := c.nextMsgID.Add(1)
	if id == 0 {
		id = c.nextMsgID.Add(1)
	}
	return id
}

func (c *Communicator) current() (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, ErrNotOpen
	}
	if c.session.finished() {
		if c.session.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCommunicatorClosed, c.session.err)
		}
		return nil, ErrCommunicatorClosed
	}
	return c.session, nil
}

func (c *Communicator) write(conn *transport.ClientConn, cmd *wire.Command) error {
	data, err := wire.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := conn.Send(data); err != nil {
		if errors.Is(err, transport.ErrConnectionClosed) {
			return c.closedErr()
		}
		return fmt.Errorf("send %s: %w", cmd.Name, err)
	}

	c.debug("command sent", "command", cmd.Name, "id", cmd.ID)
	ev := c.event(conn, log.DirectionOut)
	if id, ok := cmd.DeviceID(); ok {
		ev.DeviceID = &id
	}
	ev.Message = &log.MessageEvent{
		Type:      log.MessageTypeCommand,
		MessageID: cmd.ID,
		Command:   cmd.Name,
		Payload:   capturePayload(cmd.Parameters),
	}
	c.config.ProtocolLogger.Log(ev)
	return nil
}

func (c *Communicator) readLoop(s *session) {
	var loopErr error
	defer func() {
		c.mu.Lock()
		explicit := c.closed
		if !explicit {
			s.err = loopErr
		}
		close(s.done)
		c.mu.Unlock()

		c.failPending(s)
		if !explicit {
			c.warn("connection to ICL lost", "url", c.config.URL, "error", loopErr)
		} else {
			c.info("disconnected from ICL", "url", c.config.URL)
		}
	}()

	for {
		frame, err := s.conn.Receive(0)
		if err != nil {
			if !errors.Is(err, transport.ErrConnectionClosed) {
				loopErr = err
				s.conn.Close()
			}
			return
		}

		switch frame.Type {
		case transport.FrameBinary:
			c.mu.RLock()
			handler := c.config.BinaryHandler
			c.mu.RUnlock()
			if handler != nil {
				handler(frame.Data)
			}
		case transport.FrameText:
			c.handleText(s, frame.Data)
		}
	}
}

func (c *Communicator) handleText(s *session, data []byte) {
	conn := s.conn
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		c.warn("undecodable message from ICL", "error", err)
		ev := c.event(conn, log.DirectionIn)
		ev.Category = log.CategoryError
		ev.Error = &log.ErrorEventData{Layer: log.LayerWire, Message: err.Error(), Context: "decode response"}
		c.config.ProtocolLogger.Log(ev)
		return
	}

	c.pendingMu.Lock()
	req, ok := c.pending[resp.ID]
	if ok && req.session == s {
		delete(c.pending, resp.ID)
	} else {
		ok = false
	}
	c.pendingMu.Unlock()

	ev := c.event(conn, log.DirectionIn)
	msg := &log.MessageEvent{
		Type:      log.MessageTypeResponse,
		MessageID: resp.ID,
		Command:   resp.Command,
		Payload:   capturePayload(resp.Results),
		Errors:    resp.Errors,
	}
	if ok {
		d := time.Since(req.sent)
		msg.Duration = &d
	}
	ev.Message = msg
	c.config.ProtocolLogger.Log(ev)

	if !ok {
		c.debug("discarding unawaited response", "command", resp.Command, "id", resp.ID)
		return
	}
	c.debug("response received", "command", resp.Command, "id", resp.ID, "errors", len(resp.Errors))
	req.ch <- resp
}

// failPending releases every waiter of the session.
func (c *Communicator) failPending(s *session) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, req := range c.pending {
		if req.session == s {
			close(req.ch)
			delete(c.pending, id)
		}
	}
}

func (c *Communicator) closedErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil && c.session.err != nil {
		return fmt.Errorf("%w: %v", ErrCommunicatorClosed, c.session.err)
	}
	return ErrCommunicatorClosed
}

func (s *session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (c *Communicator) event(conn *transport.ClientConn, dir log.Direction) log.Event {
	ev := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: conn.ConnID(),
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleClient,
	}
	if addr := conn.RemoteAddr(); addr != nil {
		ev.RemoteAddr = addr.String()
	}
	return ev
}

// capturePayload converts json.Number values so captured payloads keep
// their numeric type.
func capturePayload(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = captureValue(v)
	}
	return out
}

func captureValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		return capturePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = captureValue(e)
		}
		return out
	}
	return v
}

func (c *Communicator) debug(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

func (c *Communicator) info(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, args...)
	}
}

func (c *Communicator) warn(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Warn(msg, args...)
	}
}
