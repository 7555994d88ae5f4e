package wire

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEncodeCommandCamelCase(t *testing.T) {
	cmd := NewDeviceCommand(CmdCCDSetAcqFormat, 0, map[string]any{
		"format":       0,
		"numberOfRois": 1,
	})
	cmd.ID = 17

	data, err := EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	for _, key := range []string{"id", "command", "parameters"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if raw["command"] != "ccd_setAcqFormat" {
		t.Errorf("expected command ccd_setAcqFormat, got %v", raw["command"])
	}

	params := raw["parameters"].(map[string]any)
	if params["index"] != float64(0) {
		t.Errorf("expected index 0, got %v", params["index"])
	}
	if params["numberOfRois"] != float64(1) {
		t.Errorf("expected numberOfRois 1, got %v", params["numberOfRois"])
	}
}

func TestEncodeCommandRejectsUnassignedID(t *testing.T) {
	cmd := NewCommand(CmdICLInfo, nil)

	if _, err := EncodeCommand(cmd); err == nil {
		t.Fatal("expected error for id 0")
	}

	cmd.ID = 1
	cmd.Name = ""
	if _, err := EncodeCommand(cmd); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestDecodeCommand(t *testing.T) {
	data := []byte(`{"id": 3, "command": "ccd_setExposureTime", "parameters": {"index": 1, "time": 1500}}`)

	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}

	if cmd.ID != 3 {
		t.Errorf("expected id 3, got %d", cmd.ID)
	}
	if cmd.Name != CmdCCDSetExposureTime {
		t.Errorf("expected %s, got %s", CmdCCDSetExposureTime, cmd.Name)
	}
	id, ok := cmd.DeviceID()
	if !ok || id != 1 {
		t.Errorf("expected device id 1, got %d (%v)", id, ok)
	}
	if n, ok := ToInt64(cmd.Parameters["time"]); !ok || n != 1500 {
		t.Errorf("expected time 1500, got %v", cmd.Parameters["time"])
	}
}

func TestDecodeCommandWithoutParameters(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"id": 9, "command": "icl_info"}`))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Parameters == nil {
		t.Error("expected empty parameters map, got nil")
	}
	if _, ok := cmd.DeviceID(); ok {
		t.Error("expected no device id")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := &Response{
		ID:      42,
		Command: CmdCCDGetChipSize,
		Results: Results{"x": 1024, "y": 256},
	}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	if !strings.Contains(string(data), `"errors":[]`) {
		t.Errorf("expected empty errors array, got %s", data)
	}

	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}

	if decoded.ID != 42 {
		t.Errorf("expected id 42, got %d", decoded.ID)
	}
	if !decoded.IsSuccess() {
		t.Errorf("expected success, got errors %v", decoded.Errors)
	}
	x, err := decoded.Results.Int("x")
	if err != nil || x != 1024 {
		t.Errorf("expected x=1024, got %d (%v)", x, err)
	}
	y, err := decoded.Results.Int("y")
	if err != nil || y != 256 {
		t.Errorf("expected y=256, got %d (%v)", y, err)
	}
}

func TestDecodeResponseErrors(t *testing.T) {
	t.Run("VendorErrors", func(t *testing.T) {
		data := []byte(`{"id": 5, "command": "ccd_open", "results": {}, "errors": ["[E];-1;device not found"]}`)

		resp, err := DecodeResponse(data)
		if err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if resp.IsSuccess() {
			t.Fatal("expected failure")
		}

		var cmdErr *CommandError
		if !errors.As(resp.Err(), &cmdErr) {
			t.Fatalf("expected *CommandError, got %T", resp.Err())
		}
		if cmdErr.Command != CmdCCDOpen || len(cmdErr.Errors) != 1 {
			t.Errorf("unexpected error contents: %+v", cmdErr)
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := DecodeResponse([]byte(`{"command": "ccd_open", "results": {}}`))
		if !errors.Is(err, ErrMissingID) {
			t.Errorf("expected ErrMissingID, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := DecodeResponse([]byte("  "))
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("expected ErrEmptyMessage, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := DecodeResponse([]byte("{not json")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("NullResults", func(t *testing.T) {
		resp, err := DecodeResponse([]byte(`{"id": 2, "command": "ccd_close"}`))
		if err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if resp.Results == nil {
			t.Error("expected empty results map")
		}
	})
}

func TestPeekID(t *testing.T) {
	id, err := PeekID([]byte(`{"id": 77, "command": "x", "results": {"a": [1,2,3]}}`))
	if err != nil {
		t.Fatalf("PeekID: %v", err)
	}
	if id != 77 {
		t.Errorf("expected 77, got %d", id)
	}

	if _, err := PeekID([]byte(`{"command": "x"}`)); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		command string
		want    Family
	}{
		{CmdICLInfo, FamilyICL},
		{CmdCCDGetGain, FamilyCCD},
		{CmdMonoMoveGrating, FamilyMono},
		{"spectracq3_open", FamilyUnknown},
	}

	for _, tt := range tests {
		if got := FamilyOf(tt.command); got != tt.want {
			t.Errorf("FamilyOf(%q) = %s, want %s", tt.command, got, tt.want)
		}
	}
}
