package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/device"
)

func init() {
	monoCmd.AddCommand(monoStatusCmd)
	monoCmd.AddCommand(monoInitCmd)
	monoCmd.AddCommand(monoMoveCmd)
	monoCmd.AddCommand(monoGratingCmd)
	monoCmd.AddCommand(monoShutterCmd)
	monoCmd.AddCommand(monoSlitCmd)
	monoCmd.AddCommand(monoFilterCmd)
	monoCmd.AddCommand(monoMirrorCmd)
	rootCmd.AddCommand(monoCmd)
}

var monoCmd = &cobra.Command{
	Use:     "mono",
	Aliases: []string{"monochromator"},
	Short:   "Inspect and move monochromators",
}

// monoStatus is a snapshot of a monochromator's positions.
type monoStatus struct {
	Info       device.Info `json:"device"`
	Busy       bool        `json:"busy"`
	Wavelength float64     `json:"wavelength"`
	Grating    string      `json:"grating"`
	Shutter    string      `json:"shutter"`
}

var monoStatusCmd = &cobra.Command{
	Use:   "status <index>",
	Short: "Show the positions of a monochromator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			st := monoStatus{Info: mono.Info()}
			var err error
			if st.Busy, err = mono.IsBusy(ctx); err != nil {
				return err
			}
			if st.Wavelength, err = mono.Wavelength(ctx); err != nil {
				return err
			}
			grating, err := mono.TurretGrating(ctx)
			if err != nil {
				return err
			}
			st.Grating = grating.String()
			shutter, err := mono.ShutterPosition(ctx)
			if err != nil {
				return err
			}
			st.Shutter = shutter.String()
			return emit(st, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Device:\t%s\n", st.Info)
				fmt.Fprintf(tw, "Busy:\t%v\n", st.Busy)
				fmt.Fprintf(tw, "Wavelength:\t%.3f nm\n", st.Wavelength)
				fmt.Fprintf(tw, "Grating:\t%s\n", st.Grating)
				fmt.Fprintf(tw, "Shutter:\t%s\n", st.Shutter)
				tw.Flush()
			})
		})
	},
}

var monoInitCmd = &cobra.Command{
	Use:   "init <index>",
	Short: "Home the monochromator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if err := mono.Initialize(ctx); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

var monoMoveCmd = &cobra.Command{
	Use:   "move <index> <wavelength-nm>",
	Short: "Move to a center wavelength",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nm, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid wavelength %q", args[1])
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if err := mono.MoveToWavelength(ctx, nm); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

var monoGratingCmd = &cobra.Command{
	Use:   "grating <index> <grating>",
	Short: "Select a turret grating (first, second, third or a number)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		grating, err := device.ParseGrating(args[1])
		if err != nil {
			return err
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if err := mono.SetTurretGrating(ctx, grating); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

var monoShutterCmd = &cobra.Command{
	Use:       "shutter <index> open|close",
	Short:     "Open or close the shutter",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"open", "close"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var op func(*device.Monochromator, context.Context) error
		switch args[1] {
		case "open":
			op = (*device.Monochromator).OpenShutter
		case "close":
			op = (*device.Monochromator).CloseShutter
		default:
			return fmt.Errorf("shutter: want open or close, got %q", args[1])
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			return op(mono, ctx)
		})
	},
}

var monoSlitCmd = &cobra.Command{
	Use:   "slit <index> <slit> [width-mm]",
	Short: "Show or set a slit width (slits a to d)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		slit, err := device.ParseSlit(args[1])
		if err != nil {
			return err
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if len(args) == 2 {
				mm, err := mono.SlitPosition(ctx, slit)
				if err != nil {
					return err
				}
				return emit(map[string]any{"slit": slit.String(), "mm": mm}, func(w io.Writer) {
					fmt.Fprintf(w, "Slit %s: %.3f mm\n", slit, mm)
				})
			}
			mm, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid width %q", args[2])
			}
			if err := mono.SetSlitPosition(ctx, slit, mm); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

var monoFilterCmd = &cobra.Command{
	Use:   "filter <index> <wheel> [position]",
	Short: "Show or set a filter wheel position",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		wheel, err := device.ParseFilterWheel(args[1])
		if err != nil {
			return err
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if len(args) == 2 {
				pos, err := mono.FilterWheelPosition(ctx, wheel)
				if err != nil {
					return err
				}
				return emit(map[string]any{"wheel": wheel.String(), "position": pos.String()}, func(w io.Writer) {
					fmt.Fprintf(w, "Filter wheel %s: %s\n", wheel, pos)
				})
			}
			pos, err := device.ParseFilterWheelPosition(args[2])
			if err != nil {
				return err
			}
			if err := mono.SetFilterWheelPosition(ctx, wheel, pos); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

var monoMirrorCmd = &cobra.Command{
	Use:   "mirror <index> <mirror> [position]",
	Short: "Show or set a swing mirror position",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mirror, err := device.ParseMirror(args[1])
		if err != nil {
			return err
		}
		return withMono(cmd, args[0], func(ctx context.Context, mono *device.Monochromator) error {
			if len(args) == 2 {
				pos, err := mono.MirrorPosition(ctx, mirror)
				if err != nil {
					return err
				}
				return emit(map[string]any{"mirror": mirror.String(), "position": pos.String()}, func(w io.Writer) {
					fmt.Fprintf(w, "Mirror %s: %s\n", mirror, pos)
				})
			}
			pos, err := device.ParseMirrorPosition(args[2])
			if err != nil {
				return err
			}
			if err := mono.SetMirrorPosition(ctx, mirror, pos); err != nil {
				return err
			}
			return mono.WaitUntilIdle(ctx, cfg.PollInterval)
		})
	},
}

// withMono runs fn on the opened monochromator named by arg.
func withMono(cmd *cobra.Command, arg string, fn func(context.Context, *device.Monochromator) error) error {
	ctx := cmd.Context()
	return withSession(ctx, true, func(s *session) error {
		mono, err := s.mono(arg)
		if err != nil {
			return err
		}
		if err := ensureOpen(ctx, mono); err != nil {
			return err
		}
		return fn(ctx, mono)
	})
}
