// Package device provides typed access to the instruments behind an ICL.
//
// Every operation builds one ICL command addressed to the device index,
// sends it through a Communicator and converts the named result fields.
// Setters that the ICL acknowledges without useful results are sent
// fire-and-forget; getters wait for the correlated response.
//
//	ccd := device.NewChargedCoupledDevice(device.Info{ID: 0}, comm)
//	if err := ccd.Open(ctx); err != nil {
//		return err
//	}
//	defer ccd.Close(ctx)
//
//	width, height, err := ccd.ChipSize(ctx)
package device
