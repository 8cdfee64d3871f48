package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/bmsdash/pkg/client"
	"github.com/charlie0129/bmsdash/pkg/version"
)

var (
	logLevel   = "info"
	serverAddr = "127.0.0.1:8765"
	configPath = "bmsdash.json"
)

var apiClient = client.NewClient(serverAddr)

var (
	gBasic        = "Basic:"
	gTasks        = "Tasks:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gTasks,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrServerNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: bmsdash dashboard is not running")
		fmt.Fprintf(os.Stderr, "Start it with 'bmsdash serve', or point --server at a running dashboard (now %s).\n", serverAddr)
	} else if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "\nError: not found")
		fmt.Fprintln(os.Stderr, "  - Check the key with 'bmsdash cells ls' or 'bmsdash task ls'")
		fmt.Fprintln(os.Stderr, "  - Exports need at least one cell or task")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmsdash",
		Short: "bmsdash is a simulated battery cell monitoring dashboard",
		Long: `bmsdash is a simulated battery cell monitoring dashboard with charge and discharge task bookkeeping.

Run 'bmsdash serve' to start the dashboard, then open it in a browser or use the other commands to talk to it.
Cell readings are randomly generated and tasks are never executed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(serverAddr)

			if cmd.Name() == "serve" {
				return nil
			}
			if serverVersion, err := apiClient.GetVersion(); err == nil && serverVersion != version.Version {
				logrus.WithFields(logrus.Fields{
					"clientVersion": version.Version,
					"serverVersion": serverVersion,
				}).Warn("Version mismatch between client and dashboard. Some commands may not work as expected.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (used by serve)")
	globalFlags.StringVarP(&serverAddr, "server", "s", serverAddr, "dashboard address, host:port or URL")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewServeCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewCellsCommand(),
		NewTaskCommand(),
		NewExportCommand(),
		NewWatchCommand(),
		NewConfigCommand(),
	)

	return cmd
}
