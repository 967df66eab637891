package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zumlo/daybook/internal/calendar"
)

// Default event length when no end time is given, matching a short
// wellness session.
const defaultEventDuration = 30 * time.Minute

var (
	addTitle string
	addStart string
	addEnd   string
	addNotes string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event to the default calendar",
	Long: `Add an event to the default calendar.

Times are interpreted in the local timezone. When --end is omitted the
event lasts 30 minutes.

Examples:
  daybook add --title "Morning Yoga" --start "2026-09-03 07:30"
  daybook add --title "Dentist" --start "2026-09-10 14:00" --end "2026-09-10 15:00" --notes "Bring referral"`,
	Run: func(cmd *cobra.Command, args []string) {
		runAdd()
	},
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "Event title (required)")
	addCmd.Flags().StringVar(&addStart, "start", "", `Start time, "YYYY-MM-DD HH:MM" or RFC3339 (required)`)
	addCmd.Flags().StringVar(&addEnd, "end", "", "End time (default start + 30m)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Optional notes")
	addCmd.MarkFlagRequired("title")
	addCmd.MarkFlagRequired("start")
}

// parseEventTime accepts the human "YYYY-MM-DD HH:MM" form or RFC3339.
func parseEventTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected \"YYYY-MM-DD HH:MM\" or RFC3339)", value)
}

func runAdd() {
	ctx := context.Background()

	start, err := parseEventTime(addStart)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	end := start.Add(defaultEventDuration)
	if addEnd != "" {
		end, err = parseEventTime(addEnd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	access, err := newAccess(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !access.RequestAccess(ctx) {
		fmt.Println("Calendar access was not granted. Check your credentials and try again.")
		os.Exit(1)
	}

	id, err := access.AddEvent(ctx, addTitle, start, end, addNotes)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrNoWritableCalendar):
			fmt.Println("No writable calendar found. Create a calendar first.")
		case errors.Is(err, calendar.ErrInvalidDateRange):
			fmt.Println("The end time must be after the start time.")
		default:
			fmt.Printf("Error adding event: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Added %q on %s (id: %s)\n", addTitle, start.Format("Mon, Jan 2 at 15:04"), id)
}
