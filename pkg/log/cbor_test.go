package log

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 41, 7, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "6f1c2d1e-2b7a-4c55-9a63-0c0b5e7a1d42",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleSimulator,
		RemoteAddr:   "127.0.0.1:25010",
		DeviceID:     intPtr(0),
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.LocalRole != original.LocalRole {
		t.Errorf("LocalRole: got %v, want %v", decoded.LocalRole, original.LocalRole)
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
	if decoded.DeviceID == nil || *decoded.DeviceID != 0 {
		t.Errorf("DeviceID: got %v, want 0", decoded.DeviceID)
	}
}

func TestMessageEventCBORRoundTrip(t *testing.T) {
	rtt := 12 * time.Millisecond

	tests := []struct {
		name string
		msg  *MessageEvent
	}{
		{
			name: "command",
			msg: &MessageEvent{
				Type:      MessageTypeCommand,
				MessageID: 7,
				Command:   "ccd_setExposureTime",
				Payload:   map[string]any{"index": uint64(0), "time": uint64(1000)},
			},
		},
		{
			name: "response",
			msg: &MessageEvent{
				Type:      MessageTypeResponse,
				MessageID: 7,
				Command:   "ccd_getGain",
				Payload:   map[string]any{"info": uint64(1)},
				Duration:  &rtt,
			},
		},
		{
			name: "error response",
			msg: &MessageEvent{
				Type:      MessageTypeResponse,
				MessageID: 8,
				Command:   "ccd_open",
				Errors:    []string{"[E];-1;device not found"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(Event{
				Timestamp: time.Now(),
				Layer:     LayerWire,
				Category:  CategoryMessage,
				Message:   tt.msg,
			})
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			if decoded.Message == nil {
				t.Fatal("Message is nil")
			}

			got := decoded.Message
			if got.Type != tt.msg.Type {
				t.Errorf("Type: got %v, want %v", got.Type, tt.msg.Type)
			}
			if got.MessageID != tt.msg.MessageID {
				t.Errorf("MessageID: got %d, want %d", got.MessageID, tt.msg.MessageID)
			}
			if got.Command != tt.msg.Command {
				t.Errorf("Command: got %q, want %q", got.Command, tt.msg.Command)
			}
			if len(got.Errors) != len(tt.msg.Errors) {
				t.Errorf("Errors: got %v, want %v", got.Errors, tt.msg.Errors)
			}
			if (got.Duration == nil) != (tt.msg.Duration == nil) {
				t.Errorf("Duration presence: got %v, want %v", got.Duration, tt.msg.Duration)
			} else if got.Duration != nil && *got.Duration != *tt.msg.Duration {
				t.Errorf("Duration: got %v, want %v", *got.Duration, *tt.msg.Duration)
			}
			if tt.msg.Payload != nil {
				payload, ok := got.Payload.(map[string]any)
				if !ok {
					t.Fatalf("Payload type: got %T, want map[string]any", got.Payload)
				}
				if len(payload) != len(tt.msg.Payload.(map[string]any)) {
					t.Errorf("Payload: got %v, want %v", payload, tt.msg.Payload)
				}
			}
		})
	}
}

func TestFrameEventTruncation(t *testing.T) {
	small := NewFrameEvent([]byte(`{"id":1}`), false)
	if small.Truncated {
		t.Error("small frame should not be truncated")
	}
	if small.Size != 8 || string(small.Data) != `{"id":1}` {
		t.Errorf("unexpected frame: %+v", small)
	}

	big := NewFrameEvent(make([]byte, MaxFrameCapture+10), true)
	if !big.Truncated {
		t.Error("big frame should be truncated")
	}
	if big.Size != MaxFrameCapture+10 {
		t.Errorf("Size: got %d, want %d", big.Size, MaxFrameCapture+10)
	}
	if len(big.Data) != MaxFrameCapture {
		t.Errorf("Data length: got %d, want %d", len(big.Data), MaxFrameCapture)
	}
	if !big.Binary {
		t.Error("Binary flag lost")
	}
}

func TestStateAndErrorEventCBORRoundTrip(t *testing.T) {
	code := 1000
	events := []Event{
		{
			Category: CategoryState,
			StateChange: &StateChangeEvent{
				Entity:   StateEntityConnection,
				OldState: "CONNECTED",
				NewState: "DISCONNECTED",
				Reason:   "peer closed",
			},
		},
		{
			Category:   CategoryControl,
			ControlMsg: &ControlMsgEvent{Type: ControlMsgClose, CloseCode: &code},
		},
		{
			Category: CategoryError,
			Error:    &ErrorEventData{Layer: LayerTransport, Message: "read failed", Context: "receive"},
		},
	}

	for _, ev := range events {
		data, err := EncodeEvent(ev)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		decoded, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}
		switch {
		case ev.StateChange != nil:
			if decoded.StateChange == nil || *decoded.StateChange != *ev.StateChange {
				t.Errorf("StateChange: got %+v, want %+v", decoded.StateChange, ev.StateChange)
			}
		case ev.ControlMsg != nil:
			if decoded.ControlMsg == nil || decoded.ControlMsg.CloseCode == nil || *decoded.ControlMsg.CloseCode != code {
				t.Errorf("ControlMsg: got %+v", decoded.ControlMsg)
			}
		case ev.Error != nil:
			if decoded.Error == nil || *decoded.Error != *ev.Error {
				t.Errorf("Error: got %+v, want %+v", decoded.Error, ev.Error)
			}
		}
	}
}
