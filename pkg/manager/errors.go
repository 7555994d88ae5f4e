package manager

import "errors"

// Manager errors.
var (
	ErrAlreadyStarted = errors.New("device manager already started")
	ErrNotStarted     = errors.New("device manager not started")
	ErrNoDeviceList   = errors.New("no device list in response")
)
