// Package discovery finds ICL endpoints on the local network via mDNS/DNS-SD.
//
// The vendor ICL does not announce itself. An ICL host, or the simulator
// started with -advertise, registers the service type _horiba-icl._tcp with
// a small TXT record:
//
//	ver=2.0.0.102   ICL version (required)
//	name=lab-3      user-friendly instance name (optional)
//
// Browsing aggregates entries by instance name, merging the addresses that
// arrive from several interfaces, and yields one Service per instance.
// Service.URL returns the ws:// address to hand to the communicator.
package discovery
