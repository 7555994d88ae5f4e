package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icl-sdk/icl-go/pkg/config"
	"github.com/icl-sdk/icl-go/pkg/device"
	"github.com/icl-sdk/icl-go/pkg/simulator"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"index=0", "time=1.5", "openShutter=true", "name=abc", "empty=", "list=[1,2]"})
	require.NoError(t, err)
	assert.Equal(t, 0, params["index"])
	assert.Equal(t, 1.5, params["time"])
	assert.Equal(t, true, params["openShutter"])
	assert.Equal(t, "abc", params["name"])
	assert.Equal(t, "", params["empty"])
	assert.Equal(t, []any{1, 2}, params["list"])

	_, err = parseParams([]string{"index"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}

func TestParseROI(t *testing.T) {
	roi, err := parseROI("0,0,1024,256")
	require.NoError(t, err)
	assert.Equal(t, device.RegionOfInterest{Index: 1, XSize: 1024, YSize: 256, XBinning: 1, YBinning: 256}, roi)

	roi, err = parseROI("10, 20, 100, 50, 2, 25")
	require.NoError(t, err)
	assert.Equal(t, 10, roi.XOrigin)
	assert.Equal(t, 20, roi.YOrigin)
	assert.Equal(t, 2, roi.XBinning)
	assert.Equal(t, 25, roi.YBinning)

	for _, bad := range []string{"", "1,2,3", "0,0,a,1", "0,0,10,10,20,1", "0,0,0,10"} {
		_, err := parseROI(bad)
		assert.Error(t, err, bad)
	}
}

func TestFullChipRegion(t *testing.T) {
	roi := fullChipRegion(2048, 512)
	assert.Equal(t, 2048, roi.XSize)
	assert.Equal(t, 512, roi.YBinning)
	assert.True(t, roi.FitsChip(2048, 512))
	assert.Equal(t, 1, roi.Rows())
}

func TestCheckCommand(t *testing.T) {
	def, err := checkCommand(wire.NewCommand(wire.CmdCCDGetGain, map[string]any{"index": 0}), false)
	require.NoError(t, err)
	assert.Equal(t, wire.CmdCCDGetGain, def.Name)

	_, err = checkCommand(wire.NewCommand(wire.CmdCCDGetGain, nil), false)
	assert.ErrorContains(t, err, "missing parameters index")

	_, err = checkCommand(wire.NewCommand("ccd_frobnicate", nil), false)
	assert.ErrorContains(t, err, "--force")

	def, err = checkCommand(wire.NewCommand("ccd_frobnicate", nil), true)
	assert.NoError(t, err)
	assert.Nil(t, def)
}

func TestWriteCSV(t *testing.T) {
	acqs := []device.AcquisitionDescription{{
		Index: 1,
		Regions: []device.RegionData{{
			Index: 1,
			XData: []float64{500.5, 501},
			YData: [][]float64{{10, 20}, {30, 40}},
		}},
	}}
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, acqs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"acquisition", "roi", "row", "x", "counts"}, records[0])
	assert.Equal(t, []string{"1", "1", "0", "500.5", "10"}, records[1])
	assert.Equal(t, []string{"1", "1", "1", "501", "40"}, records[4])
}

func TestPrintListing(t *testing.T) {
	var buf bytes.Buffer
	printListing(&buf, deviceListing{})
	assert.Equal(t, "No devices found.\n", buf.String())

	buf.Reset()
	printListing(&buf, deviceListing{
		CCDs: []device.Info{{ID: 0, DeviceType: "Syncerity", SerialNumber: "S1"}},
	})
	assert.Contains(t, buf.String(), "Syncerity")
	assert.Contains(t, buf.String(), "S1")
}

func TestAcquireAgainstSimulator(t *testing.T) {
	profile := simulator.DefaultProfile()
	profile.TimeScale = 0.01
	sim, err := simulator.New(simulator.Config{Address: "127.0.0.1:0", Profile: &profile})
	require.NoError(t, err)
	require.NoError(t, sim.Start(context.Background()))
	t.Cleanup(func() { _ = sim.Stop() })

	cfg = &config.Config{
		Address:        sim.URL(),
		RequestTimeout: 5 * time.Second,
		PollInterval:   5 * time.Millisecond,
		LogLevel:       "error",
	}
	acquireFlags.Exposure = 200
	acquireFlags.Count = 2
	acquireFlags.OpenShutter = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = withSession(ctx, true, func(s *session) error {
		ccd, err := s.ccd("0")
		require.NoError(t, err)
		_, err = s.ccd("7")
		assert.Error(t, err)

		acqs, err := acquire(ctx, ccd, nil)
		require.NoError(t, err)
		require.Len(t, acqs, 2)
		require.Len(t, acqs[0].Regions, 1)
		assert.Equal(t, 1024, acqs[0].Regions[0].Points())

		exposure, err := ccd.ExposureTime(ctx)
		require.NoError(t, err)
		assert.Equal(t, 200, exposure)

		_, err = acquire(ctx, ccd, &device.RegionOfInterest{Index: 1, XSize: 2048, YSize: 10, XBinning: 1, YBinning: 10})
		assert.ErrorIs(t, err, device.ErrInvalidRegion)
		return nil
	})
	require.NoError(t, err)
}
