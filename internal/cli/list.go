package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var listDate string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List events for a day",
	Long: `List the default calendar's events for one day.

Examples:
  daybook list
  daybook list --date 2026-09-03`,
	Run: func(cmd *cobra.Command, args []string) {
		runList()
	},
}

func init() {
	listCmd.Flags().StringVar(&listDate, "date", "", "Day to list, YYYY-MM-DD (default today)")
}

func runList() {
	ctx := context.Background()

	date := time.Now()
	if listDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", listDate, time.Local)
		if err != nil {
			fmt.Printf("Error: invalid date %q (expected YYYY-MM-DD)\n", listDate)
			os.Exit(1)
		}
		date = parsed
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

	events, err := access.EventsForDate(ctx, date)
	if err != nil {
		fmt.Printf("Error listing events: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(date.Format("Mon, Jan 2, 2006"))
	fmt.Println()

	if len(events) == 0 {
		fmt.Println("No events for this day.")
		return
	}

	for _, event := range events {
		fmt.Printf("  %s - %s  %s\n",
			event.StartTime.Local().Format("15:04"),
			event.EndTime.Local().Format("15:04"),
			event.Title)
		fmt.Printf("      id: %s\n", event.ID)
	}
}
