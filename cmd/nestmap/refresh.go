package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nestmap/nestmap/internal/worker"
)

// newRefreshCmd queues travel recomputation for the worker, for one trip or
// for every active trip.
func newRefreshCmd() *cobra.Command {
	var project, topic string

	cmd := &cobra.Command{
		Use:   "refresh [trip-id]",
		Short: "Queue a travel time refresh on the worker topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" {
				return errors.New("a Pub/Sub project is required (--project or PUBSUB_PROJECT_ID)")
			}

			ctx := cmd.Context()
			pub, err := worker.NewPublisher(ctx, project, topic)
			if err != nil {
				return err
			}
			defer pub.Close()

			if len(args) == 1 {
				if err := pub.PublishTravelRefresh(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("queued refresh of "+args[0]))
				return nil
			}
			if err := pub.PublishSweep(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("queued refresh of all active trips"))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&project, "project", envOr("PUBSUB_PROJECT_ID", ""), "Google Cloud project")
	flags.StringVar(&topic, "topic", envOr("PUBSUB_TOPIC", "travel-refresh"), "refresh topic")
	return cmd
}
