package cell

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a set of cells.
type Summary struct {
	Cells        int     `json:"cells"`
	TotalVoltage float64 `json:"total_voltage"`
	AvgTemp      float64 `json:"avg_temp"`
	TotalCurrent float64 `json:"total_current"`
	AvgHealth    float64 `json:"avg_health"`
}

// Summarize computes the aggregate metrics of cells. It reports false for an
// empty slice, in which case there is nothing to show.
func Summarize(cells []Cell) (Summary, bool) {
	if len(cells) == 0 {
		return Summary{}, false
	}

	voltages := make([]float64, len(cells))
	temps := make([]float64, len(cells))
	currents := make([]float64, len(cells))
	health := make([]float64, len(cells))
	for i, c := range cells {
		voltages[i] = c.Voltage
		temps[i] = c.Temperature
		currents[i] = c.Current
		health[i] = c.Health
	}

	return Summary{
		Cells:        len(cells),
		TotalVoltage: floats.Sum(voltages),
		AvgTemp:      stat.Mean(temps, nil),
		TotalCurrent: floats.Sum(currents),
		AvgHealth:    stat.Mean(health, nil),
	}, true
}

// TempBand classifies a temperature the way the gauge colours it.
type TempBand string

const (
	TempNormal TempBand = "normal" // below 25 °C
	TempWarm   TempBand = "warm"   // 25 to 35 °C
	TempHot    TempBand = "hot"    // 35 °C and above
)

// Temperature gauge scale, in °C.
const (
	TempWarmFrom  = 25.0
	TempHotFrom   = 35.0
	TempScaleMax  = 50.0
	TempThreshold = 40.0
)

// TempBandOf returns the gauge band of t.
func TempBandOf(t float64) TempBand {
	switch {
	case t < TempWarmFrom:
		return TempNormal
	case t < TempHotFrom:
		return TempWarm
	default:
		return TempHot
	}
}
