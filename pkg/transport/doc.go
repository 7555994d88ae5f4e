// Package transport provides the WebSocket connection to the ICL.
//
// The ICL listens on a plain ws:// endpoint (by default on
// 127.0.0.1:25010). Commands and responses travel as JSON text frames;
// some ICL builds push bulk data as binary frames.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   JSON command / response      │
//	├────────────────────────────────┤
//	│   WebSocket text frames        │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Keep-Alive
//
// Connection liveness is monitored with WebSocket ping/pong control
// frames. The ping payload carries a 4 byte sequence number which the
// peer echoes in its pong:
//   - Ping interval: 10 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
//
// Pongs are only processed while the connection is being read, so
// keep-alive requires a reader that calls Receive continuously.
package transport
