package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/discovery"
)

func init() {
	rootCmd.AddCommand(findCmd)
}

// foundService is the JSON form of a discovered ICL.
type foundService struct {
	Instance string `json:"instance"`
	Name     string `json:"name,omitempty"`
	Version  string `json:"version"`
	URL      string `json:"url"`
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find ICL instances on the local network via mDNS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		browser := discovery.NewBrowser(discovery.BrowserConfig{
			BrowseTimeout: cfg.Discovery.Timeout,
			Interface:     cfg.Discovery.Interface,
		})
		defer browser.Stop()

		services, err := browser.Find(cmd.Context())
		if err != nil {
			return err
		}
		found := make([]foundService, 0, len(services))
		for _, svc := range services {
			found = append(found, foundService{
				Instance: svc.Instance,
				Name:     svc.Name,
				Version:  svc.Version,
				URL:      svc.URL(),
			})
		}
		return emit(found, func(w io.Writer) {
			printServices(w, found)
		})
	},
}

func printServices(w io.Writer, found []foundService) {
	if len(found) == 0 {
		fmt.Fprintln(w, "No ICL found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tNAME\tVERSION\tURL")
	for _, svc := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", svc.Instance, svc.Name, svc.Version, svc.URL)
	}
	tw.Flush()
}
