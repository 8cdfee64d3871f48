package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Show or change dashboard defaults",
		GroupID: gAdvanced,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the dashboard configuration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				raw, err := apiClient.GetConfig()
				if err != nil {
					return err
				}
				conf := config.NewFileFromConfig(raw, "")

				cmd.Println(bold("Dashboard configuration:"))
				cmd.Printf("  Listen: %s\n", bold("%s", conf.Listen()))
				cmd.Printf("  Default cell count: %s\n", bold("%d", conf.DefaultCellCount()))
				cmd.Printf("  Default chemistry: %s\n", bold("%s", conf.DefaultChemistry()))
				cmd.Printf("  Refresh intervals: %s\n", bold("%v", conf.RefreshIntervals()))
				if conf.Seed() != 0 {
					cmd.Printf("  Seed: %s\n", bold("%d", conf.Seed()))
				}
				m := conf.MQTT()
				cmd.Printf("  MQTT forwarding: %s\n", bool2Text(m.Enabled()))
				if m.Enabled() {
					cmd.Printf("    Broker: %s\n", m.Broker)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "default-cell-count [count]",
			Short: "Set the number of cells offered by the dashboard form",
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := parseIntArg(args, "count")
				if err != nil {
					return err
				}

				ret, err := apiClient.SetDefaultCellCount(n)
				if err != nil {
					return fmt.Errorf("failed to set default cell count: %w", err)
				}

				if ret != "" {
					logrus.Infof("dashboard responded: %s", ret)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "default-chemistry [lfp|nmc|lto]",
			Short: "Set the chemistry preselected by the dashboard form",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				ret, err := apiClient.SetDefaultChemistry(args[0])
				if err != nil {
					return fmt.Errorf("failed to set default chemistry: %w", err)
				}

				if ret != "" {
					logrus.Infof("dashboard responded: %s", ret)
				}
				return nil
			},
		},
	)

	return cmd
}
