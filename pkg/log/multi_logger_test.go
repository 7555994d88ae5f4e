package log

import (
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b, NoopLogger{})

	m.Log(Event{Timestamp: time.Now(), ConnectionID: "x"})
	m.Log(Event{Timestamp: time.Now(), ConnectionID: "y"})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("counts: a=%d b=%d, want 2 each", a.count(), b.count())
	}
	if a.events[1].ConnectionID != "y" {
		t.Errorf("order lost: %q", a.events[1].ConnectionID)
	}
}
