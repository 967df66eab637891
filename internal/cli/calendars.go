package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List available calendars",
	Run: func(cmd *cobra.Command, args []string) {
		runCalendars()
	},
}

func runCalendars() {
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

	calendars, err := access.Calendars(ctx)
	if err != nil {
		fmt.Printf("Error listing calendars: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Available calendars:")
	fmt.Println()

	if len(calendars) == 0 {
		fmt.Println("  (none)")
		return
	}

	def, hasDefault := access.DefaultCalendar(ctx)

	for _, cal := range calendars {
		marker := " "
		if hasDefault && cal.ID == def.ID {
			marker = "*"
		}
		fmt.Printf("  %s %s (%s)\n", marker, cal.Name, cal.AccessRole)
	}
	fmt.Println()
	fmt.Println("* default calendar (receives new events)")
}
