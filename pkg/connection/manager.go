package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrAlreadyConnected  = errors.New("already connected")
	ErrConnectInProgress = errors.New("connect already in progress")
	ErrManagerClosed     = errors.New("connection manager closed")
)

// DefaultAttemptTimeout bounds a single reconnect attempt.
const DefaultAttemptTimeout = 30 * time.Second

// State is the session state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc establishes the session. It returns nil on success.
type ConnectFunc func(ctx context.Context) error

// Config configures a Manager.
type Config struct {
	Backoff BackoffConfig

	// AutoReconnect retries after NotifyConnectionLost.
	AutoReconnect bool

	// AttemptTimeout bounds each reconnect attempt (default: 30s).
	AttemptTimeout time.Duration

	// MaxAttempts stops reconnecting after this many failures. Zero retries
	// forever.
	MaxAttempts int

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// OnStateChange is called after every state transition.
	OnStateChange func(oldState, newState State)

	// OnReconnecting is called before waiting for a reconnect attempt.
	OnReconnecting func(attempt int, delay time.Duration)
}

// Manager tracks the session state and reconnects when the session is lost.
type Manager struct {
	config  Config
	connect ConnectFunc
	backoff *Backoff

	mu    sync.Mutex
	state State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager. No connection is made until Connect.
func NewManager(connect ConnectFunc, config Config) *Manager {
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:  config,
		connect: connect,
		backoff: NewBackoff(config.Backoff),
		state:   StateDisconnected,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected returns true while the session is up.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the number of reconnect attempts since the last
// successful connect.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// Connect establishes the session.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrManagerClosed
	case StateConnecting, StateReconnecting:
		m.mu.Unlock()
		return ErrConnectInProgress
	}
	old := m.state
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(old, StateConnecting)

	if err := m.connect(ctx); err != nil {
		m.transition(StateConnecting, StateDisconnected)
		return err
	}
	if !m.transition(StateConnecting, StateConnected) {
		return ErrManagerClosed
	}
	m.backoff.Reset()
	return nil
}

// NotifyConnectionLost reports that the session dropped. With
// AutoReconnect a background reconnect starts.
func (m *Manager) NotifyConnectionLost() {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	if !m.config.AutoReconnect {
		m.state = StateDisconnected
		m.mu.Unlock()
		m.notify(StateConnected, StateDisconnected)
		return
	}
	m.state = StateReconnecting
	m.wg.Add(1)
	m.mu.Unlock()

	m.notify(StateConnected, StateReconnecting)
	go m.reconnect()
}

// Watch calls NotifyConnectionLost once done is closed, unless the
// manager is closed first.
func (m *Manager) Watch(done <-chan struct{}) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		select {
		case <-done:
			m.NotifyConnectionLost()
		case <-m.ctx.Done():
		}
	}()
}

// Close stops reconnecting and waits for background work to finish.
// It does not close the session itself.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = StateClosed
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.notify(old, StateClosed)
}

func (m *Manager) reconnect() {
	defer m.wg.Done()

	for {
		if m.config.MaxAttempts > 0 && m.backoff.Attempts() >= m.config.MaxAttempts {
			m.warn("giving up reconnecting", "attempts", m.backoff.Attempts())
			m.transition(StateReconnecting, StateDisconnected)
			return
		}

		delay := m.backoff.Next()
		attempt := m.backoff.Attempts()
		if m.config.OnReconnecting != nil {
			m.config.OnReconnecting(attempt, delay)
		}
		m.info("reconnecting", "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(m.ctx, m.config.AttemptTimeout)
		err := m.connect(ctx)
		cancel()
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.warn("reconnect attempt failed", "attempt", attempt, "error", err)
			continue
		}

		if m.transition(StateReconnecting, StateConnected) {
			m.backoff.Reset()
			m.info("reconnected", "attempts", attempt)
		}
		return
	}
}

// transition moves from one state to another and reports whether the
// current state was from.
func (m *Manager) transition(from, to State) bool {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.mu.Unlock()
	m.notify(from, to)
	return true
}

func (m *Manager) notify(oldState, newState State) {
	if m.config.Logger != nil {
		m.config.Logger.Debug("session state changed", "old", oldState.String(), "new", newState.String())
	}
	if m.config.OnStateChange != nil {
		m.config.OnStateChange(oldState, newState)
	}
}

func (m *Manager) info(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Warn(msg, args...)
	}
}
