package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/task"
)

type statusJSON struct {
	// Metrics is omitted when there are no cells.
	Metrics *statusMetricsJSON `json:"metrics,omitempty"`
	Cells   []cell.Cell        `json:"cells"`
	Tasks   []task.Task        `json:"tasks"`
}

type statusMetricsJSON struct {
	TotalVoltage float64     `json:"totalVoltage"`
	AvgTemp      float64     `json:"avgTemp"`
	TotalCurrent float64     `json:"totalCurrent"`
	AvgHealth    float64     `json:"avgHealth"`
	Deltas       *cell.Deltas `json:"deltas,omitempty"`
}

func printStatusJSON(cmd *cobra.Command, data *statusData) error {
	out := statusJSON{
		Cells: data.summary.Cells,
		Tasks: data.tasks,
	}
	if out.Cells == nil {
		out.Cells = []cell.Cell{}
	}
	if out.Tasks == nil {
		out.Tasks = []task.Task{}
	}

	if s := data.summary.Summary; s != nil {
		out.Metrics = &statusMetricsJSON{
			TotalVoltage: s.TotalVoltage,
			AvgTemp:      s.AvgTemp,
			TotalCurrent: s.TotalCurrent,
			AvgHealth:    s.AvgHealth,
			Deltas:       data.summary.Deltas,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
