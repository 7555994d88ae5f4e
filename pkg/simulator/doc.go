// Package simulator provides an in-process ICL for tests and demos.
//
// The simulator serves the same JSON envelope over WebSocket as the vendor
// ICL. It keeps per-device state so that a setter followed by the matching
// getter returns the value set, and it produces synthetic acquisition data
// whose shape follows the configured regions of interest and binning.
//
// Devices become addressable after ccd_discover / mono_discover, and must be
// opened before use, like on the real ICL. Commands missing from the
// command catalog, or lacking required parameters, are answered with an
// errors entry.
//
// Exposure and move durations are real time multiplied by the profile's
// TimeScale, so tests can run full acquisitions in milliseconds:
//
//	profile := simulator.DefaultProfile()
//	profile.TimeScale = 0.01
//	sim, _ := simulator.New(simulator.Config{Address: "127.0.0.1:0", Profile: &profile})
//	sim.Start(ctx)
//	defer sim.Stop()
package simulator
