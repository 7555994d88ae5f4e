// Package communicator correlates ICL commands with their responses.
//
// A Communicator owns one WebSocket connection to the ICL and runs a single
// read loop. Each command gets a message id from a per-communicator
// counter. SendWithResponse registers the id before writing and waits for
// the response carrying the same id; Send writes and returns immediately,
// and a late response to such a command is discarded.
//
// A Communicator is safe for concurrent use. The ICL does not promise to
// answer in order, so correlation is by id only.
//
// Basic usage:
//
//	comm, _ := communicator.New(communicator.Config{URL: "ws://127.0.0.1:25010"})
//	if err := comm.Open(ctx); err != nil {
//	    return err
//	}
//	defer comm.Close()
//
//	resp, err := comm.SendWithResponse(ctx, wire.NewCommand(wire.CmdICLInfo, nil))
package communicator
