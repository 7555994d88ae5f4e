package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})

		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}
		for i, exp := range expected {
			if base := b.Base(); base != exp {
				t.Errorf("attempt %d: base = %v, want %v", i, base, exp)
			}
			b.Next()
		}
		if b.Attempts() != len(expected) {
			t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(expected))
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Multiplier: 2, Jitter: 0.25})
		d := b.Next()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Errorf("jittered delay %v outside [1s, 1.25s]", d)
		}
	})

	t.Run("NoJitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: 10 * time.Millisecond, Max: 30 * time.Millisecond, Jitter: -1})
		got := []time.Duration{b.Next(), b.Next(), b.Next()}
		want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("delay %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})
		for i := 0; i < 5; i++ {
			b.Next()
		}
		b.Reset()
		if b.Base() != DefaultInitialBackoff || b.Attempts() != 0 {
			t.Errorf("after Reset: base %v attempts %d", b.Base(), b.Attempts())
		}
	})
}

func fastBackoff() BackoffConfig {
	return BackoffConfig{Initial: time.Millisecond, Max: 5 * time.Millisecond, Jitter: -1}
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(_, newState State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, newState)
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", m.State(), want)
}

func TestManagerConnect(t *testing.T) {
	log := &stateLog{}
	m := NewManager(func(context.Context) error { return nil }, Config{OnStateChange: log.record})
	defer m.Close()

	if m.State() != StateDisconnected {
		t.Fatalf("initial state = %s", m.State())
	}
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !m.IsConnected() {
		t.Error("expected connected")
	}
	if err := m.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect: got %v, want ErrAlreadyConnected", err)
	}

	got := log.snapshot()
	if len(got) != 2 || got[0] != StateConnecting || got[1] != StateConnected {
		t.Errorf("transitions = %v", got)
	}
}

func TestManagerConnectFailure(t *testing.T) {
	boom := errors.New("refused")
	m := NewManager(func(context.Context) error { return boom }, Config{})
	defer m.Close()

	if err := m.Connect(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Connect: got %v, want %v", err, boom)
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %s, want DISCONNECTED", m.State())
	}
}

func TestManagerConnectionLostWithoutReconnect(t *testing.T) {
	m := NewManager(func(context.Context) error { return nil }, Config{})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.NotifyConnectionLost()
	if m.State() != StateDisconnected {
		t.Errorf("state = %s, want DISCONNECTED", m.State())
	}
}

func TestManagerReconnect(t *testing.T) {
	var calls atomic.Int32
	var attempts atomic.Int32
	m := NewManager(func(context.Context) error {
		// Initial connect, then two failures, then success.
		n := calls.Add(1)
		if n == 2 || n == 3 {
			return errors.New("ICL not up yet")
		}
		return nil
	}, Config{
		Backoff:        fastBackoff(),
		AutoReconnect:  true,
		OnReconnecting: func(int, time.Duration) { attempts.Add(1) },
	})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.NotifyConnectionLost()
	waitForState(t, m, StateConnected)

	if calls.Load() != 4 {
		t.Errorf("connect called %d times, want 4", calls.Load())
	}
	if attempts.Load() != 3 {
		t.Errorf("OnReconnecting called %d times, want 3", attempts.Load())
	}
	if m.Attempts() != 0 {
		t.Errorf("backoff not reset: %d attempts", m.Attempts())
	}
}

func TestManagerMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(context.Context) error {
		if calls.Add(1) == 1 {
			return nil
		}
		return errors.New("down")
	}, Config{Backoff: fastBackoff(), AutoReconnect: true, MaxAttempts: 2})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.NotifyConnectionLost()
	waitForState(t, m, StateDisconnected)

	if calls.Load() != 3 {
		t.Errorf("connect called %d times, want 3", calls.Load())
	}
}

func TestManagerWatch(t *testing.T) {
	m := NewManager(func(context.Context) error { return nil }, Config{Backoff: fastBackoff(), AutoReconnect: true})
	defer m.Close()

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	m.Watch(done)
	close(done)

	waitForState(t, m, StateConnected)
	if m.Attempts() != 0 {
		t.Errorf("Attempts() = %d after reconnect", m.Attempts())
	}
}

func TestManagerCloseStopsReconnect(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(context.Context) error {
		if calls.Add(1) == 1 {
			return nil
		}
		return errors.New("down")
	}, Config{
		Backoff:       BackoffConfig{Initial: time.Hour, Jitter: -1},
		AutoReconnect: true,
	})

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.NotifyConnectionLost()

	closed := make(chan struct{})
	go func() {
		m.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on the reconnect delay")
	}

	if m.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED", m.State())
	}
	if err := m.Connect(context.Background()); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Connect after Close: got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("connect called %d times after close", calls.Load())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "DISCONNECTED",
		StateConnecting:   "CONNECTING",
		StateConnected:    "CONNECTED",
		StateReconnecting: "RECONNECTING",
		StateClosed:       "CLOSED",
		State(99):         "UNKNOWN",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
