package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/icl-sdk/icl-go/pkg/log"
)

var base = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func durPtr(d time.Duration) *time.Duration { return &d }

// sessionEvents is a short capture of a CCD gain query and a failed open.
func sessionEvents() []log.Event {
	conn := "abc12345-6789-0123-4567-890abcdef012"
	return []log.Event{
		{
			Timestamp: base, ConnectionID: conn, Direction: log.DirectionOut,
			Layer: log.LayerWire, Category: log.CategoryMessage, DeviceID: intPtr(0),
			RemoteAddr: "127.0.0.1:25010",
			Message: &log.MessageEvent{
				Type: log.MessageTypeCommand, MessageID: 7, Command: "ccd_getGain",
				Payload: map[string]any{"index": 0},
			},
		},
		{
			Timestamp: base.Add(3 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryMessage, DeviceID: intPtr(0),
			Message: &log.MessageEvent{
				Type: log.MessageTypeResponse, MessageID: 7, Command: "ccd_getGain",
				Payload: map[string]any{"info": "HIGH_SENSITIVITY"}, Duration: durPtr(3 * time.Millisecond),
			},
		},
		{
			Timestamp: base.Add(5 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryMessage, DeviceID: intPtr(1),
			Message: &log.MessageEvent{
				Type: log.MessageTypeResponse, MessageID: 8, Command: "ccd_open",
				Errors: []string{"ccd 1 not found"}, Duration: durPtr(time.Millisecond),
			},
		},
		{
			Timestamp: base.Add(10 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity: log.StateEntityConnection, OldState: "CONNECTED", NewState: "CLOSED", Reason: "peer went away",
			},
		},
	}
}

func writeCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.ilog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestFormatMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sessionEvents()[1])
	output := buf.String()

	for _, want := range []string{
		"2026-10-01T09:30:00.003000Z",
		"[conn:abc12345]",
		"IN  WIRE RESPONSE ccd_getGain device=0",
		"MessageID: 7",
		"Duration: 3.000ms",
		`Payload: {"info":"HIGH_SENSITIVITY"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp: base, ConnectionID: "short", Direction: log.DirectionOut,
		Layer: log.LayerTransport, Category: log.CategoryMessage,
		Frame: log.NewFrameEvent([]byte(`{"id":1,"command":"icl_info"}`), false),
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "[conn:short]") {
		t.Errorf("expected unshortened id, got: %s", output)
	}
	if !strings.Contains(output, `Text: {"id":1,"command":"icl_info"}`) {
		t.Errorf("expected frame text, got: %s", output)
	}

	event.Frame = log.NewFrameEvent([]byte{0xff, 0x00}, true)
	buf.Reset()
	formatEvent(&buf, event)
	if !strings.Contains(buf.String(), "BinaryFrame") || !strings.Contains(buf.String(), "Data: ff00") {
		t.Errorf("expected binary frame hex, got: %s", buf.String())
	}
}

func TestFormatStateAndErrors(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sessionEvents()[2])
	formatEvent(&buf, sessionEvents()[3])
	output := buf.String()

	for _, want := range []string{"Error: ccd 1 not found", "CONNECTED -> CLOSED", "Reason: peer went away"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	filter, err := FilterOptions{Command: "ccd_getGain", Direction: "in"}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if got := strings.Count(buf.String(), "ccd_getGain"); got != 1 {
		t.Errorf("expected 1 matching event, got %d:\n%s", got, buf.String())
	}
}

func TestFilterOptionsBuild(t *testing.T) {
	filter, err := FilterOptions{
		DeviceID:  "1",
		TimeStart: "2026-10-01T09:30:00Z",
		Layer:     "WIRE",
		Category:  "message",
	}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filter.DeviceID == nil || *filter.DeviceID != 1 {
		t.Errorf("expected device 1, got %v", filter.DeviceID)
	}
	if filter.Layer == nil || *filter.Layer != log.LayerWire {
		t.Errorf("expected wire layer")
	}

	bad := []FilterOptions{
		{DeviceID: "x"},
		{TimeStart: "yesterday"},
		{TimeEnd: "tomorrow"},
		{Layer: "service"},
		{Direction: "up"},
		{Category: "snapshot"},
	}
	for _, opts := range bad {
		if _, err := opts.Build(); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestRunFilter(t *testing.T) {
	path := writeCapture(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "device1.ilog")

	var buf bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{DeviceID: "1"}, &buf); err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 1 events") {
		t.Errorf("unexpected summary: %s", buf.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()
	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Message == nil || event.Message.Command != "ccd_open" {
		t.Errorf("expected the ccd_open response, got %+v", event)
	}
}

func TestExportJSONL(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	var buf bytes.Buffer
	if err := export(path, "jsonl", log.Filter{}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["ConnectionID"] != "abc12345-6789-0123-4567-890abcdef012" {
		t.Errorf("unexpected connection id: %v", first["ConnectionID"])
	}
}

func TestExportCSV(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	var buf bytes.Buffer
	if err := export(path, "csv", log.Filter{}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header and 4 rows, got %d", len(rows))
	}
	if rows[0][7] != "command" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[2][7] != "ccd_getGain" || rows[2][9] != "3000" {
		t.Errorf("unexpected response row: %v", rows[2])
	}
	if rows[3][10] != "ccd 1 not found" {
		t.Errorf("expected errors column, got %v", rows[3])
	}
	if rows[4][6] != "state" {
		t.Errorf("expected state row, got %v", rows[4])
	}

	if err := export(path, "xml", log.Filter{}, &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCollectStats(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}
	if stats.TotalEvents != 4 {
		t.Errorf("expected 4 events, got %d", stats.TotalEvents)
	}
	gain := stats.Commands["ccd_getGain"]
	if gain == nil || gain.Sent != 1 || gain.Responses != 1 || gain.Average() != 3*time.Millisecond {
		t.Errorf("unexpected ccd_getGain stats: %+v", gain)
	}
	if open := stats.Commands["ccd_open"]; open == nil || open.Failed != 1 {
		t.Errorf("unexpected ccd_open stats: %+v", open)
	}
	if len(stats.Connections) != 1 {
		t.Errorf("expected 1 connection, got %d", len(stats.Connections))
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Total Events: 4", "ccd_getGain", "avg=3.000ms", "Remote: 127.0.0.1:25010"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
