package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/session"
)

func printCellLine(cmd *cobra.Command, c cell.Cell) {
	cmd.Printf("  %-14s %s  %s  %s  health %s  cycles %d\n",
		c.DisplayName(),
		bold("%.2f V", c.Voltage),
		fmt.Sprintf("%.2f A", c.Current),
		tempText(c.Temperature),
		fmt.Sprintf("%.1f%%", c.Health),
		c.Cycles,
	)
}

func NewCellsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cells",
		Short:   "Initialize and inspect the simulated cells",
		GroupID: gBasic,
	}

	cmd.AddCommand(
		newCellsInitCommand(),
		&cobra.Command{
			Use:   "ls",
			Short: "List cells",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cells, err := apiClient.GetCells()
				if err != nil {
					return err
				}
				for _, c := range cells {
					printCellLine(cmd, c)
				}
				if len(cells) == 0 {
					cmd.Println("No cells initialized.")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [key]",
			Short: "Show one cell in detail",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := apiClient.GetCell(args[0])
				if err != nil {
					return err
				}

				cmd.Println(bold("📱 %s", c.DisplayName()))
				cmd.Printf("  Chemistry: %s\n", bold("%s", c.Chemistry))
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", c.Voltage))
				cmd.Printf("  Current: %s\n", bold("%.2f A", c.Current))
				cmd.Printf("  Temperature: %s\n", bold("%s", tempText(c.Temperature)))
				cmd.Printf("  Capacity: %s\n", bold("%.2f Wh", c.Capacity))
				cmd.Printf("  Health: %s\n", bold("%.1f%%", c.Health))
				cmd.Printf("  Cycles: %s\n", bold("%d", c.Cycles))
				cmd.Printf("  %s\n", rangeBar(c.VoltageFraction(), 30))
				cmd.Printf("  Range: %.1fV - %.1fV\n", c.MinVoltage, c.MaxVoltage)
				return nil
			},
		},
		&cobra.Command{
			Use:   "chemistries",
			Short: "List the chemistry presets",
			RunE: func(cmd *cobra.Command, _ []string) error {
				chems, err := apiClient.GetChemistries()
				if err != nil {
					return err
				}
				for _, c := range chems {
					cmd.Printf("  %s  nominal %s  range %.1fV - %.1fV\n", bold("%-3s", c.Name), bold("%.1f V", c.Nominal), c.Min, c.Max)
				}
				return nil
			},
		},
	)

	return cmd
}

func newCellsInitCommand() *cobra.Command {
	var (
		count     int
		chemistry string
	)

	cmd := &cobra.Command{
		Use:   "init [chemistry...]",
		Short: "Replace all cells with freshly generated ones",
		Long: `Replace all cells with freshly generated ones.

Give one chemistry (lfp, nmc or lto) per cell, for example 'bmsdash cells init lfp lfp nmc'.
Without arguments, --count cells of --chemistry are created. Both default to the dashboard configuration.`,
		RunE: func(_ *cobra.Command, args []string) error {
			chems := args
			if len(chems) == 0 {
				raw, err := apiClient.GetConfig()
				if err != nil {
					return err
				}
				conf := config.NewFileFromConfig(raw, "")
				if count == 0 {
					count = conf.DefaultCellCount()
				}
				if chemistry == "" {
					chemistry = conf.DefaultChemistry()
				}
				if count < session.MinCells || count > session.MaxCells {
					return fmt.Errorf("number of cells must be between %d and %d, got %d", session.MinCells, session.MaxCells, count)
				}
				for i := 0; i < count; i++ {
					chems = append(chems, chemistry)
				}
			}

			cells, err := apiClient.InitCells(chems)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(cells))
			for _, c := range cells {
				keys = append(keys, c.Key)
			}
			logrus.Infof("✅ Cells initialized successfully! (%s)", strings.Join(keys, ", "))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&count, "count", "n", 0, "number of cells (1-20)")
	f.StringVarP(&chemistry, "chemistry", "c", "", "chemistry of every cell (lfp, nmc, lto)")

	return cmd
}
