package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zumlo/daybook/internal/calendar"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event from the default calendar",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDelete(args[0])
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(id string) {
	ctx := context.Background()

	if !deleteYes && !confirm(fmt.Sprintf("Remove event %s from your calendar?", id)) {
		fmt.Println("Cancelled.")
		return
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

	if err := access.DeleteEvent(ctx, id); err != nil {
		switch {
		case errors.Is(err, calendar.ErrEventNotFound):
			fmt.Printf("No event with id %s.\n", id)
		case errors.Is(err, calendar.ErrNoWritableCalendar):
			fmt.Println("No writable calendar found.")
		default:
			fmt.Printf("Failed to delete event: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("Event deleted.")
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
