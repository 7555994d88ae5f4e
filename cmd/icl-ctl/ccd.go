package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/device"
)

func init() {
	ccdCmd.AddCommand(ccdStatusCmd)
	ccdCmd.AddCommand(ccdSetCmd)
	rootCmd.AddCommand(ccdCmd)
}

var ccdCmd = &cobra.Command{
	Use:   "ccd",
	Short: "Inspect and configure CCDs",
}

// ccdStatus is a snapshot of a CCD's settings.
type ccdStatus struct {
	Info            device.Info `json:"device"`
	Temperature     float64     `json:"temperature"`
	ChipWidth       int         `json:"chipWidth"`
	ChipHeight      int         `json:"chipHeight"`
	Gain            string      `json:"gain"`
	Speed           string      `json:"speed"`
	ExposureTime    int         `json:"exposureTime"`
	TimerResolution int         `json:"timerResolution"`
	Averages        int         `json:"averages"`
	AcqCount        int         `json:"acqCount"`
	CleanCount      string      `json:"cleanCount"`
	Conversion      string      `json:"xAxisConversion"`
}

var ccdStatusCmd = &cobra.Command{
	Use:   "status <index>",
	Short: "Show the settings of a CCD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withSession(ctx, true, func(s *session) error {
			ccd, err := s.ccd(args[0])
			if err != nil {
				return err
			}
			if err := ensureOpen(ctx, ccd); err != nil {
				return err
			}
			st, err := readCCDStatus(ctx, ccd)
			if err != nil {
				return err
			}
			return emit(st, func(w io.Writer) {
				printCCDStatus(w, st)
			})
		})
	},
}

// opener is a device that can be opened on demand.
type opener interface {
	IsOpen(ctx context.Context) (bool, error)
	Open(ctx context.Context) error
}

func ensureOpen(ctx context.Context, d opener) error {
	open, err := d.IsOpen(ctx)
	if err != nil {
		return err
	}
	if open {
		return nil
	}
	return d.Open(ctx)
}

func readCCDStatus(ctx context.Context, ccd *device.ChargedCoupledDevice) (ccdStatus, error) {
	st := ccdStatus{Info: ccd.Info()}
	var err error
	if st.Temperature, err = ccd.ChipTemperature(ctx); err != nil {
		return st, err
	}
	if st.ChipWidth, st.ChipHeight, err = ccd.ChipSize(ctx); err != nil {
		return st, err
	}
	gain, err := ccd.Gain(ctx)
	if err != nil {
		return st, err
	}
	st.Gain = gain.String()
	speed, err := ccd.Speed(ctx)
	if err != nil {
		return st, err
	}
	st.Speed = speed.String()
	if st.ExposureTime, err = ccd.ExposureTime(ctx); err != nil {
		return st, err
	}
	if st.TimerResolution, err = ccd.TimerResolution(ctx); err != nil {
		return st, err
	}
	if st.Averages, err = ccd.NumberOfAverages(ctx); err != nil {
		return st, err
	}
	if st.AcqCount, err = ccd.AcquisitionCount(ctx); err != nil {
		return st, err
	}
	clean, err := ccd.CleanCount(ctx)
	if err != nil {
		return st, err
	}
	st.CleanCount = clean.String()
	conversion, err := ccd.XAxisConversionType(ctx)
	if err != nil {
		return st, err
	}
	st.Conversion = conversion.String()
	return st, nil
}

func printCCDStatus(w io.Writer, st ccdStatus) {
	unit := "ms"
	if st.TimerResolution == 1 {
		unit = "us"
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Device:\t%s\n", st.Info)
	fmt.Fprintf(tw, "Temperature:\t%.1f °C\n", st.Temperature)
	fmt.Fprintf(tw, "Chip:\t%dx%d\n", st.ChipWidth, st.ChipHeight)
	fmt.Fprintf(tw, "Gain:\t%s\n", st.Gain)
	fmt.Fprintf(tw, "Speed:\t%s\n", st.Speed)
	fmt.Fprintf(tw, "Exposure:\t%d %s\n", st.ExposureTime, unit)
	fmt.Fprintf(tw, "Averages:\t%d\n", st.Averages)
	fmt.Fprintf(tw, "Acquisitions:\t%d\n", st.AcqCount)
	fmt.Fprintf(tw, "Clean count:\t%s\n", st.CleanCount)
	fmt.Fprintf(tw, "X axis:\t%s\n", st.Conversion)
	tw.Flush()
}

// ccdSetters maps a setting name to the call applying it.
var ccdSetters = map[string]func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error{
	"gain": func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error {
		gain, err := device.ParseGain(value)
		if err != nil {
			return err
		}
		return ccd.SetGain(ctx, gain)
	},
	"speed": func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error {
		speed, err := device.ParseSpeed(value)
		if err != nil {
			return err
		}
		return ccd.SetSpeed(ctx, speed)
	},
	"exposure":         intSetter((*device.ChargedCoupledDevice).SetExposureTime),
	"timer-resolution": intSetter((*device.ChargedCoupledDevice).SetTimerResolution),
	"averages":         intSetter((*device.ChargedCoupledDevice).SetNumberOfAverages),
	"acq-count":        intSetter((*device.ChargedCoupledDevice).SetAcquisitionCount),
	"conversion": func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error {
		conversion, err := device.ParseConversionType(value)
		if err != nil {
			return err
		}
		return ccd.SetXAxisConversionType(ctx, conversion)
	},
	"fit-params": func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error {
		return ccd.SetFitParameters(ctx, value)
	},
}

func intSetter(set func(*device.ChargedCoupledDevice, context.Context, int) error) func(context.Context, *device.ChargedCoupledDevice, string) error {
	return func(ctx context.Context, ccd *device.ChargedCoupledDevice, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		return set(ccd, ctx, n)
	}
}

func ccdSettingNames() []string {
	names := make([]string, 0, len(ccdSetters))
	for name := range ccdSetters {
		names = append(names, name)
	}
	return sortedStrings(names)
}

var ccdSetCmd = &cobra.Command{
	Use:   "set <index> <setting> <value>",
	Short: "Change a CCD setting",
	Long: "Change a CCD setting. Settings: " + strings.Join(ccdSettingNames(), ", ") + ".\n" +
		"Enum values take a name (best-dynamic-range) or a number.",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, ok := ccdSetters[args[1]]
		if !ok {
			return fmt.Errorf("unknown setting %q (have %s)", args[1], strings.Join(ccdSettingNames(), ", "))
		}
		ctx := cmd.Context()
		return withSession(ctx, true, func(s *session) error {
			ccd, err := s.ccd(args[0])
			if err != nil {
				return err
			}
			if err := ensureOpen(ctx, ccd); err != nil {
				return err
			}
			return set(ctx, ccd, args[2])
		})
	},
}
