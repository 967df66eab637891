package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zumlo/daybook/internal/calendar"
)

// Suggestion is a preset activity that can be scheduled with one command.
type Suggestion struct {
	Title   string
	Minutes int
}

var suggestions = []Suggestion{
	{Title: "Morning Yoga", Minutes: 15},
	{Title: "Lunch Walk", Minutes: 20},
	{Title: "Evening Meditation", Minutes: 10},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [number]",
	Short: "Schedule a quick activity suggestion",
	Long: `Schedule a preset activity at the next full hour.

Run without arguments to see the suggestions, then pick one by number:
  daybook suggest
  daybook suggest 2`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			printSuggestions()
			return
		}
		runSuggest(args[0])
	},
}

func printSuggestions() {
	fmt.Println("Quick suggestions (scheduled at the next full hour):")
	fmt.Println()
	for i, s := range suggestions {
		fmt.Printf("  %d. %s (%d mins)\n", i+1, s.Title, s.Minutes)
	}
	fmt.Println()
	fmt.Println("Schedule one with: daybook suggest <number>")
}

// nextFullHour returns the next full hour after now, seconds zeroed.
func nextFullHour(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
}

func runSuggest(arg string) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 1 || index > len(suggestions) {
		fmt.Printf("Error: pick a suggestion between 1 and %d\n", len(suggestions))
		os.Exit(1)
	}
	suggestion := suggestions[index-1]

	ctx := context.Background()

	access, err := newAccess(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !access.RequestAccess(ctx) {
		fmt.Println("Calendar access was not granted. Check your credentials and try again.")
		os.Exit(1)
	}

	start := nextFullHour(time.Now())
	end := start.Add(time.Duration(suggestion.Minutes) * time.Minute)

	_, err = access.AddEvent(ctx, suggestion.Title, start, end, "Scheduled via Daybook")
	if err != nil {
		if errors.Is(err, calendar.ErrNoWritableCalendar) {
			fmt.Println("No writable calendar found. Create a calendar first.")
		} else {
			fmt.Printf("Could not add event: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Added! %s scheduled for %s\n", suggestion.Title, start.Format("3:04 PM"))
}
