// Package log captures ICL protocol traffic as machine-readable events.
//
// It is separate from operational logging (slog). Operational logs tell an
// operator what the SDK is doing; protocol capture records every command,
// response, frame and connection state change so a session with an
// instrument can be replayed and inspected later.
//
// # Basic Usage
//
//	// Development: print events via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Lab machines: write a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/icl/session.ilog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .ilog
// extension. The icl-log command views, filters and exports them.
package log
