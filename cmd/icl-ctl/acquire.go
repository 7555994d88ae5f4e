package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/device"
)

var acquireFlags struct {
	CCD         string
	Exposure    int
	Count       int
	ROI         string
	Gain        string
	Speed       string
	OpenShutter bool
	Output      string
	Timeout     time.Duration
}

func init() {
	f := acquireCmd.Flags()
	f.StringVar(&acquireFlags.CCD, "ccd", "0", "CCD index")
	f.IntVarP(&acquireFlags.Exposure, "exposure", "e", 100, "exposure time in timer resolution units (ms by default)")
	f.IntVarP(&acquireFlags.Count, "count", "n", 1, "number of acquisitions")
	f.StringVar(&acquireFlags.ROI, "roi", "", "region as x,y,width,height[,xbin,ybin] (default full chip, full vertical binning)")
	f.StringVar(&acquireFlags.Gain, "gain", "", "gain to set before acquiring")
	f.StringVar(&acquireFlags.Speed, "speed", "", "speed to set before acquiring")
	f.BoolVar(&acquireFlags.OpenShutter, "open-shutter", true, "open the shutter during exposure")
	f.StringVarP(&acquireFlags.Output, "output", "o", "", "write the spectra as CSV to this file (- for stdout)")
	f.DurationVar(&acquireFlags.Timeout, "timeout", 5*time.Minute, "give up when the acquisition takes longer")
	rootCmd.AddCommand(acquireCmd)
}

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Run an acquisition on a CCD and fetch the spectra",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var roi *device.RegionOfInterest
		if acquireFlags.ROI != "" {
			r, err := parseROI(acquireFlags.ROI)
			if err != nil {
				return err
			}
			roi = &r
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), acquireFlags.Timeout)
		defer cancel()

		return withSession(ctx, true, func(s *session) error {
			ccd, err := s.ccd(acquireFlags.CCD)
			if err != nil {
				return err
			}
			acqs, err := acquire(ctx, ccd, roi)
			if err != nil {
				return err
			}
			return writeAcquisitions(acqs)
		})
	},
}

// acquire configures ccd, runs one acquisition sequence and returns its
// data. A nil roi selects the whole chip with full vertical binning.
func acquire(ctx context.Context, ccd *device.ChargedCoupledDevice, roi *device.RegionOfInterest) ([]device.AcquisitionDescription, error) {
	if err := ensureOpen(ctx, ccd); err != nil {
		return nil, err
	}

	width, height, err := ccd.ChipSize(ctx)
	if err != nil {
		return nil, err
	}
	region := fullChipRegion(width, height)
	if roi != nil {
		region = *roi
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if !region.FitsChip(width, height) {
		return nil, fmt.Errorf("%w: %dx%d at (%d, %d) does not fit the %dx%d chip", device.ErrInvalidRegion,
			region.XSize, region.YSize, region.XOrigin, region.YOrigin, width, height)
	}

	if acquireFlags.Gain != "" {
		gain, err := device.ParseGain(acquireFlags.Gain)
		if err != nil {
			return nil, err
		}
		if err := ccd.SetGain(ctx, gain); err != nil {
			return nil, err
		}
	}
	if acquireFlags.Speed != "" {
		speed, err := device.ParseSpeed(acquireFlags.Speed)
		if err != nil {
			return nil, err
		}
		if err := ccd.SetSpeed(ctx, speed); err != nil {
			return nil, err
		}
	}
	if err := ccd.SetExposureTime(ctx, acquireFlags.Exposure); err != nil {
		return nil, err
	}
	if err := ccd.SetAcquisitionCount(ctx, acquireFlags.Count); err != nil {
		return nil, err
	}
	if err := ccd.SetAcquisitionFormat(ctx, device.AcquisitionFormatSpectra, 1); err != nil {
		return nil, err
	}
	if err := ccd.SetRegionOfInterest(ctx, region); err != nil {
		return nil, err
	}

	ready, err := ccd.AcquisitionReady(ctx)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("CCD %d is not ready to acquire", ccd.ID())
	}
	if err := ccd.StartAcquisition(ctx, acquireFlags.OpenShutter); err != nil {
		return nil, err
	}
	if err := ccd.WaitUntilIdle(ctx, cfg.PollInterval); err != nil {
		return nil, err
	}
	return ccd.Acquisitions(ctx)
}

// fullChipRegion reads out the whole chip as one spectrum.
func fullChipRegion(width, height int) device.RegionOfInterest {
	roi := device.DefaultRegionOfInterest()
	roi.XSize, roi.YSize = width, height
	roi.YBinning = height
	return roi
}

// parseROI parses "x,y,width,height[,xbin,ybin]". Without binning the
// region is read out with full vertical binning.
func parseROI(s string) (device.RegionOfInterest, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return device.RegionOfInterest{}, fmt.Errorf("roi %q: want x,y,width,height[,xbin,ybin]", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return device.RegionOfInterest{}, fmt.Errorf("roi %q: %q is not a number", s, p)
		}
		vals[i] = n
	}
	roi := device.RegionOfInterest{
		Index:    1,
		XOrigin:  vals[0],
		YOrigin:  vals[1],
		XSize:    vals[2],
		YSize:    vals[3],
		XBinning: 1,
		YBinning: vals[3],
	}
	if len(vals) == 6 {
		roi.XBinning, roi.YBinning = vals[4], vals[5]
	}
	return roi, roi.Validate()
}

func writeAcquisitions(acqs []device.AcquisitionDescription) error {
	switch acquireFlags.Output {
	case "":
		return emit(acqs, func(w io.Writer) {
			printAcquisitionSummary(w, acqs)
		})
	case "-":
		return writeCSV(stdout, acqs)
	}

	f, err := os.Create(acquireFlags.Output)
	if err != nil {
		return err
	}
	if err := writeCSV(f, acqs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d acquisition(s) to %s\n", len(acqs), acquireFlags.Output)
	return nil
}

// writeCSV writes one line per point: acquisition, roi, row, x, counts.
func writeCSV(w io.Writer, acqs []device.AcquisitionDescription) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"acquisition", "roi", "row", "x", "counts"}); err != nil {
		return err
	}
	for _, acq := range acqs {
		for _, region := range acq.Regions {
			for row, counts := range region.YData {
				for i, y := range counts {
					x := float64(i)
					if i < len(region.XData) {
						x = region.XData[i]
					}
					rec := []string{
						strconv.Itoa(acq.Index),
						strconv.Itoa(region.Index),
						strconv.Itoa(row),
						strconv.FormatFloat(x, 'g', -1, 64),
						strconv.FormatFloat(y, 'g', -1, 64),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func printAcquisitionSummary(w io.Writer, acqs []device.AcquisitionDescription) {
	for _, acq := range acqs {
		fmt.Fprintf(w, "Acquisition %d", acq.Index)
		if acq.Timestamp != "" {
			fmt.Fprintf(w, " at %s", acq.Timestamp)
		}
		fmt.Fprintln(w)
		for _, region := range acq.Regions {
			spectrum := region.Spectrum()
			if len(spectrum) == 0 {
				fmt.Fprintf(w, "  ROI %d: no data\n", region.Index)
				continue
			}
			fmt.Fprintf(w, "  ROI %d: %d points, %d row(s), counts %g..%g\n", region.Index,
				region.Points(), len(region.YData), slices.Min(spectrum), slices.Max(spectrum))
		}
	}
}
