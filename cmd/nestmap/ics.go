package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nestmap/nestmap/internal/export"
)

func newICSCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ics <file.json>",
		Short: "Write the iCalendar feed of a trip document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(opts.timeZone)
			if err != nil {
				return fmt.Errorf("time zone %q: %w", opts.timeZone, err)
			}
			if opts.eventMinutes <= 0 {
				return fmt.Errorf("--event-minutes must be positive, got %d", opts.eventMinutes)
			}

			doc, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			return export.WriteCalendar(cmd.OutOrStdout(), export.Document{
				TripID:   doc.Trip.ID,
				Title:    doc.Trip.Title,
				Location: loc,
				Plan:     opts.scheduler().Build(doc.Trip, doc.Activities),
			}, export.CalendarOptions{
				EventDuration: time.Duration(opts.eventMinutes) * time.Minute,
			})
		},
	}
}
