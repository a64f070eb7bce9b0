// Package main provides the nestmap command line tool, which plans and
// exports a trip document without a running API, mints development bearer
// tokens and queues travel refreshes for the worker.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nestmap/nestmap/internal/itinerary"
)

// Version is set at compile time via ldflags.
var Version = "dev"

type options struct {
	threshold     time.Duration
	orderTieBreak bool
	eventMinutes  int
	timeZone      string
}

func (o *options) scheduler() *itinerary.Scheduler {
	return itinerary.NewScheduler(
		itinerary.WithTravelPolicy(itinerary.TravelPolicy{Threshold: o.threshold}),
		itinerary.WithOrderTieBreak(o.orderTieBreak),
	)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "nestmap",
		Short:         "Plan and export trip itineraries",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.DurationVar(&opts.threshold, "threshold", itinerary.DefaultTravelThreshold, "travel time above which a leg is flagged")
	flags.BoolVar(&opts.orderTieBreak, "order-tiebreak", false, "treat same-time activities with distinct order as sequential")
	flags.IntVar(&opts.eventMinutes, "event-minutes", 120, "length of each calendar event in minutes")
	flags.StringVar(&opts.timeZone, "tz", "UTC", "IANA time zone of the trip")

	cmd.AddCommand(newPlanCmd(opts), newICSCmd(opts), newTokenCmd(), newRefreshCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
