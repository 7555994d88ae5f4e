// Command icl-ctl controls HORIBA instruments through an ICL.
//
// Settings are read from ~/.config/icl/icl.yaml (or --config) and ICL_
// environment variables; flags override both.
//
// Examples:
//
//	icl-ctl info
//	icl-ctl discover
//	icl-ctl ccd status 0
//	icl-ctl acquire --ccd 0 --exposure 500 --output spectrum.csv
//	icl-ctl mono move 0 546.1
//	icl-ctl send ccd_getGain index=0
//	icl-ctl find
//	icl-ctl shell
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/config"
	"github.com/icl-sdk/icl-go/pkg/version"
)

// options holds the persistent flags.
type options struct {
	ConfigPath  string
	Address     string
	LogLevel    string
	ProtocolLog string
	JSON        bool
}

var (
	flags options
	cfg   *config.Config
)

func main() {
	Execute()
}

// Execute runs the root command and exits non-zero on error.
// Interrupts cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "icl-ctl",
	Short:         "Control HORIBA CCDs and monochromators through the ICL",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file (default ~/.config/icl/icl.yaml)")
	pf.StringVarP(&flags.Address, "address", "a", "", "ICL WebSocket URL (default ws://127.0.0.1:25010)")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.ProtocolLog, "protocol-log", "", "capture all frames to this file")
	pf.BoolVar(&flags.JSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the settings and applies the flags that were set.
func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	pf := cmd.Flags()
	if pf.Changed("address") {
		loaded.Address = flags.Address
	}
	if pf.Changed("log-level") {
		loaded.LogLevel = flags.LogLevel
	}
	if pf.Changed("protocol-log") {
		loaded.ProtocolLog = flags.ProtocolLog
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the SDK version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("icl-ctl %s (tested against ICL %s and later)\n", version.SDK, version.MinimumICL)
	},
}
