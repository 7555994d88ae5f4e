package wire

import (
	"fmt"
)

// JSON keys of the command/response envelope.
const (
	KeyID         = "id"
	KeyCommand    = "command"
	KeyParameters = "parameters"
	KeyResults    = "results"
	KeyErrors     = "errors"

	// KeyIndex is the parameter carrying the device id.
	KeyIndex = "index"
)

// Command represents an ICL command sent from the SDK.
//
// JSON encoding:
//
//	{
//	  "id": 12,                   // message id, assigned by the communicator
//	  "command": "ccd_setGain",   // vendor command name
//	  "parameters": {"index": 0, "token": 1}
//	}
type Command struct {
	ID         uint32         `json:"id"`
	Name       string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}

// NewCommand creates a command with the given parameters.
// The message id is left zero; the communicator assigns it on send.
func NewCommand(name string, params map[string]any) *Command {
	if params == nil {
		params = map[string]any{}
	}
	return &Command{
		Name:       name,
		Parameters: params,
	}
}

// NewDeviceCommand creates a command addressed to the device with the given id.
// Extra parameters are merged after the device index.
func NewDeviceCommand(name string, deviceID int, params map[string]any) *Command {
	p := make(map[string]any, len(params)+1)
	p[KeyIndex] = deviceID
	for k, v := range params {
		p[k] = v
	}
	return &Command{
		Name:       name,
		Parameters: p,
	}
}

// Validate checks if the command can be sent.
func (c *Command) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("message id 0 is not assigned")
	}
	if c.Name == "" {
		return fmt.Errorf("command name is empty")
	}
	return nil
}

// DeviceID returns the device index carried in the parameters, if any.
func (c *Command) DeviceID() (int, bool) {
	v, ok := c.Parameters[KeyIndex]
	if !ok {
		return 0, false
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Response represents an ICL response to a command.
//
// JSON encoding:
//
//	{
//	  "id": 12,                    // id of the answered command
//	  "command": "ccd_getGain",
//	  "results": {"info": 1},
//	  "errors": []                 // vendor error strings, empty on success
//	}
type Response struct {
	ID      uint32   `json:"id"`
	Command string   `json:"command"`
	Results Results  `json:"results"`
	Errors  []string `json:"errors"`
}

// IsSuccess returns true if the response carries no vendor errors.
func (r *Response) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Err returns a *CommandError when the response carries vendor errors.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &CommandError{
		ID:      r.ID,
		Command: r.Command,
		Errors:  append([]string(nil), r.Errors...),
	}
}
