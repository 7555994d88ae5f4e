package device

import (
	"fmt"

	"github.com/icl-sdk/icl-go/pkg/wire"
)

// AcquisitionField is the result field holding acquisition data.
const AcquisitionField = "acquisition"

// AcquisitionDescription is one acquisition returned by
// ccd_getAcquisitionData.
type AcquisitionDescription struct {
	Index     int          `json:"acqIndex"`
	Timestamp string       `json:"timestamp,omitempty"`
	Regions   []RegionData `json:"roi"`
}

// RegionData is the data read from one region of interest.
type RegionData struct {
	Index    int `json:"roiIndex"`
	XOrigin  int `json:"xOrigin"`
	YOrigin  int `json:"yOrigin"`
	XSize    int `json:"xSize"`
	YSize    int `json:"ySize"`
	XBinning int `json:"xBinning"`
	YBinning int `json:"yBinning"`

	// XData holds the x axis, in pixels or nanometers depending on the
	// conversion type.
	XData []float64 `json:"xData"`

	// YData holds one row of counts per binned row.
	YData [][]float64 `json:"yData"`
}

// Points returns the number of points on the x axis.
func (r RegionData) Points() int {
	return len(r.XData)
}

// Spectrum returns the first row of counts, which is the whole spectrum
// under full vertical binning.
func (r RegionData) Spectrum() []float64 {
	if len(r.YData) == 0 {
		return nil
	}
	return r.YData[0]
}

// ParseAcquisitions decodes the acquisition field of
// ccd_getAcquisitionData results.
func ParseAcquisitions(results wire.Results) ([]AcquisitionDescription, error) {
	var acqs []AcquisitionDescription
	if err := results.Decode(AcquisitionField, &acqs); err != nil {
		return nil, fmt.Errorf("%s: %w", wire.CmdCCDGetAcquisitionData, err)
	}
	return acqs, nil
}
