package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icl-sdk/icl-go/pkg/device"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestHandler(t *testing.T) (*Handler, *fakeClock) {
	t.Helper()
	h, err := NewHandler(DefaultProfile(), nil)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	h.now = clock.now
	return h, clock
}

var nextID uint32

func do(t *testing.T, h *Handler, name string, params map[string]any) *wire.Response {
	t.Helper()
	nextID++
	cmd := wire.NewCommand(name, params)
	cmd.ID = nextID
	resp := h.HandleCommand(cmd)
	require.Equal(t, cmd.ID, resp.ID)
	require.Equal(t, name, resp.Command)
	return resp
}

func mustDo(t *testing.T, h *Handler, name string, params map[string]any) wire.Results {
	t.Helper()
	resp := do(t, h, name, params)
	require.Empty(t, resp.Errors, "%s failed", name)
	return resp.Results
}

func dev(kv ...any) map[string]any {
	p := map[string]any{wire.KeyIndex: 0}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i].(string)] = kv[i+1]
	}
	return p
}

func openCCD(t *testing.T, h *Handler) {
	t.Helper()
	mustDo(t, h, wire.CmdCCDDiscover, nil)
	mustDo(t, h, wire.CmdCCDOpen, dev())
}

func TestHandlerUnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := do(t, h, "ccd_selfDestruct", nil)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "unknown command")
	assert.NotNil(t, resp.Results)
}

func TestHandlerMissingParameters(t *testing.T) {
	h, _ := newTestHandler(t)
	openCCD(t, h)

	resp := do(t, h, wire.CmdCCDSetRoi, dev("roiIndex", 1))
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "xOrigin")

	resp = do(t, h, wire.CmdCCDGetGain, nil)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "index")
}

func TestHandlerInfo(t *testing.T) {
	h, _ := newTestHandler(t)
	res := mustDo(t, h, wire.CmdICLInfo, nil)
	v, err := res.String("version")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0.102", v)
}

func TestHandlerDiscovery(t *testing.T) {
	h, _ := newTestHandler(t)

	res := mustDo(t, h, wire.CmdCCDList, nil)
	assert.Empty(t, res["devices"])
	resp := do(t, h, wire.CmdCCDOpen, dev())
	require.Len(t, resp.Errors, 1, "devices are not addressable before discovery")

	res = mustDo(t, h, wire.CmdCCDDiscover, nil)
	count, _ := res.Int("count")
	assert.Equal(t, 1, count)

	res = mustDo(t, h, wire.CmdCCDList, nil)
	devices := res["devices"].([]map[string]any)
	require.Len(t, devices, 1)
	assert.Equal(t, "Camera SN: 2244", devices[0]["serialNumber"])
	assert.Equal(t, 0, devices[0]["index"])

	res = mustDo(t, h, wire.CmdMonoListCount, nil)
	count, _ = res.Int("count")
	assert.Equal(t, 0, count)
	mustDo(t, h, wire.CmdMonoDiscover, nil)
	res = mustDo(t, h, wire.CmdMonoListCount, nil)
	count, _ = res.Int("count")
	assert.Equal(t, 1, count)

	resp = do(t, h, wire.CmdCCDOpen, map[string]any{wire.KeyIndex: 5})
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "ccd 5 not found")
}

func TestHandlerCCDRequiresOpen(t *testing.T) {
	h, _ := newTestHandler(t)
	mustDo(t, h, wire.CmdCCDDiscover, nil)

	res := mustDo(t, h, wire.CmdCCDIsOpen, dev())
	assert.Equal(t, false, res["open"])
	resp := do(t, h, wire.CmdCCDGetGain, dev())
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "not open")

	mustDo(t, h, wire.CmdCCDOpen, dev())
	res = mustDo(t, h, wire.CmdCCDIsOpen, dev())
	assert.Equal(t, true, res["open"])
}

func TestHandlerCCDSetGet(t *testing.T) {
	h, _ := newTestHandler(t)
	openCCD(t, h)

	tests := []struct {
		set, get string
		param    string
		field    string
		value    int
	}{
		{wire.CmdCCDSetGain, wire.CmdCCDGetGain, "token", "info", 2},
		{wire.CmdCCDSetSpeed, wire.CmdCCDGetSpeed, "token", "info", 1},
		{wire.CmdCCDSetExposureTime, wire.CmdCCDGetExposureTime, "time", "time", 1234},
		{wire.CmdCCDSetTimerResolution, wire.CmdCCDGetTimerResolution, "resolution", "resolution", 1},
		{wire.CmdCCDSetNumberOfAvgs, wire.CmdCCDGetNumberOfAvgs, "count", "count", 4},
		{wire.CmdCCDSetXAxisConversionType, wire.CmdCCDGetXAxisConversionType, "type", "type", 1},
		{wire.CmdCCDSetAcqCount, wire.CmdCCDGetAcqCount, "count", "count", 5},
	}
	for _, tt := range tests {
		t.Run(tt.set, func(t *testing.T) {
			mustDo(t, h, tt.set, dev(tt.param, tt.value))
			res := mustDo(t, h, tt.get, dev())
			got, err := res.Int(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	resp := do(t, h, wire.CmdCCDSetGain, dev("token", 7))
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "out of range")

	mustDo(t, h, wire.CmdCCDSetFitParams, dev("params", "1,1,1,1,1"))
	res := mustDo(t, h, wire.CmdCCDGetFitParams, dev())
	assert.Equal(t, "1,1,1,1,1", res["params"])

	mustDo(t, h, wire.CmdCCDSetCleanCount, dev("count", 3, "mode", 238))
	res = mustDo(t, h, wire.CmdCCDGetCleanCount, dev())
	assert.Equal(t, 3, res["count"])
	assert.Equal(t, 238, res["mode"])
}

func roiParams(roi device.RegionOfInterest) map[string]any {
	return dev(
		"roiIndex", roi.Index, "xOrigin", roi.XOrigin, "yOrigin", roi.YOrigin,
		"xSize", roi.XSize, "ySize", roi.YSize, "xBin", roi.XBinning, "yBin", roi.YBinning,
	)
}

func TestHandlerAcquisition(t *testing.T) {
	h, clock := newTestHandler(t)
	openCCD(t, h)

	res := mustDo(t, h, wire.CmdCCDGetAcquisitionReady, dev())
	assert.Equal(t, false, res["ready"], "not ready without a region")

	mustDo(t, h, wire.CmdCCDSetExposureTime, dev("time", 1000))
	mustDo(t, h, wire.CmdCCDSetRoi, roiParams(device.DefaultRegionOfInterest()))
	res = mustDo(t, h, wire.CmdCCDGetDataSize, dev())
	assert.Equal(t, 1024, res["size"])

	res = mustDo(t, h, wire.CmdCCDGetAcquisitionReady, dev())
	assert.Equal(t, true, res["ready"])

	mustDo(t, h, wire.CmdCCDSetAcquisitionStart, dev("openShutter", true))
	res = mustDo(t, h, wire.CmdCCDGetAcquisitionBusy, dev())
	assert.Equal(t, true, res["isBusy"])

	resp := do(t, h, wire.CmdCCDGetAcquisitionData, dev())
	require.Len(t, resp.Errors, 1, "data is not readable while busy")

	clock.advance(time.Second)
	res = mustDo(t, h, wire.CmdCCDGetAcquisitionBusy, dev())
	assert.Equal(t, false, res["isBusy"])

	res = mustDo(t, h, wire.CmdCCDGetAcquisitionData, dev())
	acqs := res[device.AcquisitionField].([]device.AcquisitionDescription)
	require.Len(t, acqs, 1)
	require.Len(t, acqs[0].Regions, 1)
	region := acqs[0].Regions[0]
	assert.Equal(t, 1024, region.Points())
	assert.Len(t, region.YData, 1)
	assert.Len(t, region.Spectrum(), 1024)
	assert.Equal(t, 0.0, region.XData[0])
	assert.Equal(t, 1023.0, region.XData[1023])
}

func TestHandlerAcquisitionBinningAndRegions(t *testing.T) {
	h, clock := newTestHandler(t)
	openCCD(t, h)

	mustDo(t, h, wire.CmdCCDSetAcqCount, dev("count", 2))
	mustDo(t, h, wire.CmdCCDSetXAxisConversionType, dev("type", 1))
	mustDo(t, h, wire.CmdCCDSetRoi, roiParams(device.RegionOfInterest{
		Index: 1, XSize: 512, YSize: 200, XBinning: 2, YBinning: 50,
	}))
	mustDo(t, h, wire.CmdCCDSetRoi, roiParams(device.RegionOfInterest{
		Index: 2, XOrigin: 512, YOrigin: 200, XSize: 512, YSize: 56, XBinning: 1, YBinning: 56,
	}))
	res := mustDo(t, h, wire.CmdCCDGetDataSize, dev())
	assert.Equal(t, 256*4+512, res["size"])

	mustDo(t, h, wire.CmdCCDSetAcquisitionStart, dev("openShutter", false))
	clock.advance(time.Second)

	res = mustDo(t, h, wire.CmdCCDGetAcquisitionData, dev())
	acqs := res[device.AcquisitionField].([]device.AcquisitionDescription)
	require.Len(t, acqs, 2)
	assert.Equal(t, 2, acqs[1].Index)
	require.Len(t, acqs[0].Regions, 2)
	assert.Equal(t, 256, acqs[0].Regions[0].Points())
	assert.Len(t, acqs[0].Regions[0].YData, 4)
	assert.Equal(t, 512, acqs[0].Regions[1].Points())
	// Converted x axis is in nanometres around the monochromator position.
	assert.Less(t, acqs[0].Regions[0].XData[0], acqs[0].Regions[0].XData[1])

	mustDo(t, h, wire.CmdCCDSetAcqFormat, dev("format", 0, "numberOfRois", 1))
	res = mustDo(t, h, wire.CmdCCDGetDataSize, dev())
	assert.Equal(t, 256*4, res["size"])
}

func TestHandlerRegionRejected(t *testing.T) {
	h, _ := newTestHandler(t)
	openCCD(t, h)

	resp := do(t, h, wire.CmdCCDSetRoi, roiParams(device.RegionOfInterest{
		Index: 1, XOrigin: 100, XSize: 1024, YSize: 256, XBinning: 1, YBinning: 256,
	}))
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "exceeds")

	resp = do(t, h, wire.CmdCCDSetAcquisitionStart, dev("openShutter", true))
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "no region")
}

func TestHandlerAbortAndRestart(t *testing.T) {
	h, _ := newTestHandler(t)
	openCCD(t, h)
	mustDo(t, h, wire.CmdCCDSetRoi, roiParams(device.DefaultRegionOfInterest()))
	mustDo(t, h, wire.CmdCCDSetAcquisitionStart, dev("openShutter", true))

	mustDo(t, h, wire.CmdCCDSetAcquisitionAbort, dev())
	res := mustDo(t, h, wire.CmdCCDGetAcquisitionBusy, dev())
	assert.Equal(t, false, res["isBusy"])
	resp := do(t, h, wire.CmdCCDGetAcquisitionData, dev())
	require.Len(t, resp.Errors, 1)

	mustDo(t, h, wire.CmdCCDSetGain, dev("token", 2))
	mustDo(t, h, wire.CmdCCDRestart, dev())
	res = mustDo(t, h, wire.CmdCCDGetGain, dev())
	assert.Equal(t, 0, res["info"])
	res = mustDo(t, h, wire.CmdCCDIsOpen, dev())
	assert.Equal(t, true, res["open"])
}

func TestHandlerMonochromator(t *testing.T) {
	h, clock := newTestHandler(t)
	mustDo(t, h, wire.CmdMonoDiscover, nil)
	mustDo(t, h, wire.CmdMonoOpen, dev())

	resp := do(t, h, wire.CmdMonoGetPosition, dev())
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "not initialized")

	mustDo(t, h, wire.CmdMonoInit, dev())
	res := mustDo(t, h, wire.CmdMonoIsBusy, dev())
	assert.Equal(t, true, res["busy"])
	clock.advance(time.Second)
	res = mustDo(t, h, wire.CmdMonoIsBusy, dev())
	assert.Equal(t, false, res["busy"])

	mustDo(t, h, wire.CmdMonoMoveToPosition, dev("wavelength", 546.1))
	res = mustDo(t, h, wire.CmdMonoGetPosition, dev())
	assert.Equal(t, 546.1, res["wavelength"])

	resp = do(t, h, wire.CmdMonoMoveToPosition, dev("wavelength", 5000))
	require.Len(t, resp.Errors, 1)

	mustDo(t, h, wire.CmdMonoMoveGrating, dev("position", 2))
	res = mustDo(t, h, wire.CmdMonoGetGratingPosition, dev())
	assert.Equal(t, 2, res["position"])

	mustDo(t, h, wire.CmdMonoMoveFilterWheel, dev("locationId", 1, "position", 3))
	res = mustDo(t, h, wire.CmdMonoGetFilterWheelPosition, dev("locationId", 1))
	assert.Equal(t, 3, res["position"])
	res = mustDo(t, h, wire.CmdMonoGetFilterWheelPosition, dev("locationId", 0))
	assert.Equal(t, 0, res["position"])

	mustDo(t, h, wire.CmdMonoMoveMirror, dev("locationId", 0, "position", 1))
	res = mustDo(t, h, wire.CmdMonoGetMirrorPosition, dev("locationId", 0))
	assert.Equal(t, 1, res["position"])

	mustDo(t, h, wire.CmdMonoMoveSlitMM, dev("locationId", 2, "position", 0.5))
	res = mustDo(t, h, wire.CmdMonoGetSlitPositionInMM, dev("locationId", 2))
	assert.Equal(t, 0.5, res["position"])
	resp = do(t, h, wire.CmdMonoMoveSlitMM, dev("locationId", 9, "position", 0.5))
	require.Len(t, resp.Errors, 1)

	mustDo(t, h, wire.CmdMonoShutterOpen, dev())
	res = mustDo(t, h, wire.CmdMonoGetShutterStatus, dev())
	assert.Equal(t, 1, res["position"])
	mustDo(t, h, wire.CmdMonoShutterClose, dev())
	res = mustDo(t, h, wire.CmdMonoGetShutterStatus, dev())
	assert.Equal(t, 0, res["position"])
}

func TestHandlerMovesQueue(t *testing.T) {
	h, clock := newTestHandler(t)
	mustDo(t, h, wire.CmdMonoDiscover, nil)
	mustDo(t, h, wire.CmdMonoOpen, dev())
	mustDo(t, h, wire.CmdMonoInit, dev())
	mustDo(t, h, wire.CmdMonoMoveToPosition, dev("wavelength", 500))

	// Two moves of 200ms each.
	clock.advance(300 * time.Millisecond)
	res := mustDo(t, h, wire.CmdMonoIsBusy, dev())
	assert.Equal(t, true, res["busy"])
	clock.advance(200 * time.Millisecond)
	res = mustDo(t, h, wire.CmdMonoIsBusy, dev())
	assert.Equal(t, false, res["busy"])
}

func TestHandlerShutdown(t *testing.T) {
	h, _ := newTestHandler(t)
	select {
	case <-h.ShutdownRequested():
		t.Fatal("shutdown signalled early")
	default:
	}
	mustDo(t, h, wire.CmdICLShutdown, nil)
	mustDo(t, h, wire.CmdICLShutdown, nil)
	select {
	case <-h.ShutdownRequested():
	default:
		t.Fatal("shutdown not signalled")
	}
}
