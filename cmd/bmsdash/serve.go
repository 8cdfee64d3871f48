package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/dashboard"
	"github.com/charlie0129/bmsdash/pkg/version"
)

// NewServeCommand .
func NewServeCommand() *cobra.Command {
	var (
		listen      string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the dashboard in the foreground",
		GroupID: gBasic,
		Long: `Run the dashboard in the foreground.

The listen address defaults to the "listen" key of the config file, or 127.0.0.1:8765.
Send SIGHUP to reload the config file.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("bmsdash dashboard starting")
			return dashboard.Run(configPath, listen, openBrowser)
		},
	}

	f := cmd.Flags()

	f.StringVar(&listen, "listen", "", "address to listen on, overrides the config file")
	f.BoolVar(&openBrowser, "open", false, "open the dashboard in a browser once it is listening")

	return cmd
}
