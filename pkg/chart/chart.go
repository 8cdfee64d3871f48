package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/charlie0129/bmsdash/pkg/cell"
)

const theme = "macarons"

// VoltageChart builds the voltage monitoring line chart, one series per trace.
func VoltageChart(traces []cell.Trace) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Voltage",
			Theme:     theme,
			Width:     "100%",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Real-time Voltage Monitoring",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         "Time (seconds)",
			NameLocation: "middle",
			NameGap:      30,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  "Voltage (V)",
			Scale: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "0",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)

	var x []string
	if len(traces) > 0 {
		x = make([]string, len(traces[0].Times))
		for i, t := range traces[0].Times {
			x[i] = strconv.Itoa(t)
		}
	}
	line.SetXAxis(x)

	for _, tr := range traces {
		line.AddSeries(tr.Name, lineItems(tr.Voltages))
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 3}),
	)

	return line
}

func lineItems(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.LineData{Value: v})
	}
	return items
}

// gaugeBands colours the dial: grey up to warm, yellow up to hot, red above.
// Stops are fractions of TempScaleMax.
var gaugeBands = fmt.Sprintf(
	`%%MY_ECHARTS%%.setOption({series:[{axisLine:{lineStyle:{color:[[%g,"lightgray"],[%g,"yellow"],[1,"red"]]}}}]});`,
	cell.TempWarmFrom/cell.TempScaleMax, cell.TempHotFrom/cell.TempScaleMax,
)

// TemperatureGauge builds the temperature gauge of a single cell, on a
// 0-50 °C dial with a red marker at cell.TempThreshold.
func TemperatureGauge(c cell.Cell) *charts.Gauge {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.DisplayName(),
			Theme:     theme,
			Width:     "100%",
			Height:    "300px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Temperature (°C)",
			Subtitle: c.DisplayName(),
		}),
	)

	gauge.AddSeries("Temperature", []opts.GaugeData{{Name: "°C", Value: c.Temperature}},
		charts.WithSeriesOpts(func(s *charts.SingleSeries) {
			s.Max = int(cell.TempScaleMax)
			s.AxisLine = &opts.AxisLine{
				Show:      opts.Bool(true),
				LineStyle: &opts.LineStyle{Width: 20},
			}
		}),
	)
	gauge.AddSeries("Threshold", []opts.GaugeData{{Value: cell.TempThreshold}},
		charts.WithSeriesOpts(func(s *charts.SingleSeries) {
			s.Max = int(cell.TempScaleMax)
			s.AxisLine = &opts.AxisLine{Show: opts.Bool(false)}
			s.AxisTick = &opts.AxisTick{Show: opts.Bool(false)}
			s.AxisLabel = &opts.AxisLabel{Show: opts.Bool(false)}
			s.SplitLine = &opts.SplitLine{Show: opts.Bool(false)}
			s.Detail = &opts.Detail{Show: opts.Bool(false)}
			s.Pointer = &opts.Pointer{
				Icon:      "rect",
				Length:    "95%",
				ItemStyle: &opts.ItemStyle{Color: "red"},
			}
		}),
	)
	gauge.AddJSFuncStrs(types.FuncStr(gaugeBands))
	return gauge
}

// RenderVoltage writes the voltage chart as a standalone HTML document.
func RenderVoltage(w io.Writer, traces []cell.Trace) error {
	return VoltageChart(traces).Render(w)
}

// RenderTemperature writes the temperature gauge as a standalone HTML document.
func RenderTemperature(w io.Writer, c cell.Cell) error {
	return TemperatureGauge(c).Render(w)
}
