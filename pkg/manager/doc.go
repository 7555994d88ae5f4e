// Package manager owns the session with an ICL and the devices it reports.
//
// A DeviceManager opens the communicator, checks the ICL version, runs
// device discovery and hands out typed CCD and monochromator objects:
//
//	mgr, err := manager.New(manager.Config{})
//	if err := mgr.Start(ctx); err != nil { ... }
//	defer mgr.Stop(ctx)
//
//	if err := mgr.DiscoverDevices(ctx); err != nil { ... }
//	for _, ccd := range mgr.ChargedCoupledDevices() { ... }
//
// With AutoReconnect set, a dropped connection is re-established with
// exponential backoff and discovery is run again on the new session.
package manager
