package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Follow session changes as they happen",
		GroupID: gAdvanced,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return apiClient.Watch(ctx, func(e events.Event) {
				ts := time.Now().Format(time.Kitchen)
				switch e.Name {
				case events.CellsInitialized:
					p, err := events.DecodeAs[events.CellsInitializedEvent](e)
					if err != nil {
						cmd.Printf("%s %s %s\n", ts, bold("%s", e.Name), string(e.Data))
						return
					}
					cmd.Printf("%s %s %d cells %v\n", ts, bold("%s", e.Name), len(p.Keys), p.Keys)
				case events.TaskAdded, events.TaskDeleted, events.TaskStarted:
					p, err := events.DecodeAs[events.TaskEvent](e)
					if err != nil {
						cmd.Printf("%s %s %s\n", ts, bold("%s", e.Name), string(e.Data))
						return
					}
					cmd.Printf("%s %s %s %s %s\n", ts, bold("%s", e.Name), p.Key, p.Type, p.Message)
				default:
					cmd.Printf("%s %s %s\n", ts, bold("%s", e.Name), string(e.Data))
				}
			})
		},
	}
}
