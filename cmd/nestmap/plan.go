package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nestmap/nestmap/internal/itinerary"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1)

	timeStyle = lipgloss.NewStyle().
			Width(9).
			Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			PaddingLeft(11)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <file.json>",
		Short: "Print the day-by-day plan of a trip document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			plan := opts.scheduler().Build(doc.Trip, doc.Activities)
			return renderPlan(cmd.OutOrStdout(), doc.Trip, plan)
		},
	}
}

// renderPlan writes one block per trip day followed by the activities that
// fall outside the trip.
func renderPlan(w io.Writer, trip itinerary.Trip, plan *itinerary.Plan) error {
	var b strings.Builder

	title := trip.Title
	if title == "" {
		title = "Trip"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s to %s", title, trip.StartDate, trip.EndDate)))
	b.WriteString("\n")

	conflicts := 0
	for i, day := range plan.Days {
		b.WriteString(dayStyle.Render(fmt.Sprintf("Day %d  %s", i+1, day.Date)))
		b.WriteString("\n")

		if len(day.Activities) == 0 {
			b.WriteString(mutedStyle.Render("  nothing planned"))
			b.WriteString("\n")
			continue
		}
		for _, a := range day.Activities {
			line := "  " + timeStyle.Render(a.DisplayTime) + a.Title
			if a.LocationName != "" {
				line += mutedStyle.Render(" @ " + a.LocationName)
			}
			if a.TravelTimeFromPrevious != "" {
				line += mutedStyle.Render(fmt.Sprintf(" (%s %s)", a.ModeIcon, a.TravelTimeFromPrevious))
			}
			b.WriteString(line)
			b.WriteString("\n")

			for _, warning := range a.Warnings {
				b.WriteString(warningStyle.Render("! " + warning))
				b.WriteString("\n")
			}
			if a.TimeConflict || a.TravelConflict {
				conflicts++
			}
		}
	}

	if len(plan.Unscheduled) > 0 {
		b.WriteString(dayStyle.Render("Outside the trip dates"))
		b.WriteString("\n")
		for _, a := range plan.Unscheduled {
			b.WriteString("  " + mutedStyle.Render(a.Date.String()) + "  " + a.Title + "\n")
		}
	}

	b.WriteString("\n")
	if conflicts > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d activities need attention", conflicts)))
	} else {
		b.WriteString(mutedStyle.Render("no conflicts"))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
