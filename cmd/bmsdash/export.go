package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/export"
)

func NewExportCommand() *cobra.Command {
	var outDir string

	newExport := func(what, prefix string, fetch func(io.Writer) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   what,
			Short: "Download the " + what + " as CSV",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				var buf bytes.Buffer
				name, err := fetch(&buf)
				if err != nil {
					return fmt.Errorf("failed to export %s: %w", what, err)
				}
				if name == "" {
					name = export.Filename(prefix, time.Now())
				}

				path := filepath.Join(outDir, filepath.Base(name))
				if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				logrus.Infof("💾 saved %s", path)
				return nil
			},
		}
	}

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Download cell or task data as CSV",
		GroupID: gTasks,
	}
	cmd.PersistentFlags().StringVarP(&outDir, "output-dir", "o", ".", "directory to write the file to")

	cmd.AddCommand(
		newExport("cells", export.CellsPrefix, func(w io.Writer) (string, error) { return apiClient.ExportCells(w) }),
		newExport("tasks", export.TasksPrefix, func(w io.Writer) (string, error) { return apiClient.ExportTasks(w) }),
	)

	return cmd
}
