package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/dashboard"
	"github.com/charlie0129/bmsdash/pkg/task"
)

type statusData struct {
	summary *dashboard.SummaryResponse
	tasks   []task.Task
}

// fetchStatusData gathers all data required for the status command from the dashboard.
func fetchStatusData() (*statusData, error) {
	sum, err := apiClient.GetSummary()
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	tasks, err := apiClient.GetTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	return &statusData{summary: sum, tasks: tasks}, nil
}

func NewStatusCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the aggregate metrics, cells and tasks",
		Long:    `Get the aggregate metrics of the cells, one line per cell, and the task list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if jsonOutput {
				return printStatusJSON(cmd, data)
			}

			cmd.Println(bold("Metrics:"))
			if s := data.summary.Summary; s != nil {
				d := data.summary.Deltas
				cmd.Printf("  🔋 Total Voltage: %s (%s)\n", bold("%.2f V", s.TotalVoltage), deltaText(2, d.Voltage))
				cmd.Printf("  🌡️ Avg Temperature: %s (%s)\n", bold("%s", tempText(s.AvgTemp)), deltaText(1, d.Temperature))
				cmd.Printf("  ⚡ Total Current: %s (%s)\n", bold("%.2f A", s.TotalCurrent), deltaText(2, d.Current))
				cmd.Printf("  💚 Avg Health: %s (%s)\n", bold("%.1f%%", s.AvgHealth), deltaText(1, d.Health))
			} else {
				cmd.Println("  No cells initialized. Run 'bmsdash cells init' first.")
			}

			cmd.Println()

			cmd.Println(bold("Cells:"))
			for _, c := range data.summary.Cells {
				printCellLine(cmd, c)
			}
			if len(data.summary.Cells) == 0 {
				cmd.Println("  (none)")
			}

			cmd.Println()

			cmd.Println(bold("Tasks:"))
			for _, t := range data.tasks {
				printTaskLine(cmd, t)
			}
			if len(data.tasks) == 0 {
				cmd.Println("  (none)")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print status as JSON")

	return cmd
}
