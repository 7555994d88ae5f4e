package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/device"
)

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(discoverCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the ICL version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withSession(ctx, false, func(s *session) error {
			info, err := s.mgr.Info(ctx)
			if err != nil {
				return err
			}
			return emit(info.Raw, func(w io.Writer) {
				printResults(w, info.Raw)
			})
		})
	},
}

// deviceListing is the discover output.
type deviceListing struct {
	CCDs           []device.Info `json:"ccds"`
	Monochromators []device.Info `json:"monochromators"`
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the CCDs and monochromators attached to the ICL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withSession(ctx, true, func(s *session) error {
			listing := deviceListing{
				CCDs:           []device.Info{},
				Monochromators: []device.Info{},
			}
			for _, d := range s.mgr.ChargedCoupledDevices() {
				listing.CCDs = append(listing.CCDs, d.Info())
			}
			for _, d := range s.mgr.Monochromators() {
				listing.Monochromators = append(listing.Monochromators, d.Info())
			}
			return emit(listing, func(w io.Writer) {
				printListing(w, listing)
			})
		})
	},
}

func printListing(w io.Writer, listing deviceListing) {
	if len(listing.CCDs)+len(listing.Monochromators) == 0 {
		fmt.Fprintln(w, "No devices found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTYPE\tSERIAL")
	for _, list := range [][]device.Info{listing.CCDs, listing.Monochromators} {
		for _, info := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", info.ID, info.DeviceType, info.SerialNumber)
		}
	}
	tw.Flush()
}
