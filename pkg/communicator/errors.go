package communicator

import "errors"

// Communicator errors.
var (
	ErrRequestTimeout     = errors.New("request timed out")
	ErrCommunicatorClosed = errors.New("communicator is closed")
	ErrNotOpen            = errors.New("communicator is not open")
	ErrAlreadyOpen        = errors.New("communicator is already open")
	ErrUnexpectedResponse = errors.New("unexpected response")
)
