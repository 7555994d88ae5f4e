package transport

import (
	"context"
	"net"
	"time"
)

// ServerConnection is a server-side connection to a client.
// Implemented by ServerConn.
type ServerConnection interface {
	RemoteAddr() net.Addr
	ConnID() string
	Send(data []byte) error
	SendBinary(data []byte) error
	Close() error
}

// ClientConnection is a client-side connection to the ICL.
// Implemented by ClientConn.
type ClientConnection interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	ConnID() string

	// Send writes a text frame.
	Send(data []byte) error

	// Receive returns the next data frame, waiting at most timeout
	// (0 waits forever).
	Receive(timeout time.Duration) (Frame, error)

	// SendPing writes a ping control frame with the given sequence number.
	SendPing(seq uint32) error

	Close() error
}

// TransportServer accepts WebSocket clients.
// Implemented by Server.
type TransportServer interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	ConnectionCount() int
}

// Compile-time interface satisfaction checks.
var (
	_ ServerConnection = (*ServerConn)(nil)
	_ ClientConnection = (*ClientConn)(nil)
	_ TransportServer  = (*Server)(nil)
)
