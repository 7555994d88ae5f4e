package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal encodes a value to JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON into v, keeping numbers as json.Number.
func Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyMessage
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// EncodeCommand encodes a command to JSON bytes.
func EncodeCommand(cmd *Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return Marshal(cmd)
}

// DecodeCommand decodes JSON bytes into a command.
func DecodeCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	if cmd.Parameters == nil {
		cmd.Parameters = map[string]any{}
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return &cmd, nil
}

// EncodeResponse encodes a response to JSON bytes.
// Nil results and errors are written as {} and [] like the ICL does.
func EncodeResponse(resp *Response) ([]byte, error) {
	out := *resp
	if out.Results == nil {
		out.Results = Results{}
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return Marshal(&out)
}

// DecodeResponse decodes JSON bytes into a response.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.ID == 0 {
		return nil, ErrMissingID
	}
	if resp.Results == nil {
		resp.Results = Results{}
	}
	return &resp, nil
}

// PeekID returns the message id of a JSON message without fully decoding it.
func PeekID(data []byte) (uint32, error) {
	var peek struct {
		ID uint32 `json:"id"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return 0, fmt.Errorf("failed to peek message: %w", err)
	}
	if peek.ID == 0 {
		return 0, ErrMissingID
	}
	return peek.ID, nil
}
