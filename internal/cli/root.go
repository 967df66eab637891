package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/zumlo/daybook/internal/auth"
	"github.com/zumlo/daybook/internal/calendar"
	"github.com/zumlo/daybook/internal/config"
	"github.com/zumlo/daybook/internal/datewindow"
	"github.com/zumlo/daybook/internal/ui"
)

var (
	configFile            string
	backendFlag           string
	googleCredentialsPath string
	googleTokenPath       string
	caldavServerURL       string
	caldavUsername        string
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Browse and manage calendar events one day at a time",
	Long: `daybook - a day-view calendar companion in your terminal.

Browse events within one month around today, add activities, and delete
what no longer applies. Works against Google Calendar or any CalDAV
server; events are written to your default calendar.`,
	Run: func(cmd *cobra.Command, args []string) {
		runTUI()
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to JSON config file (optional)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", `Calendar backend: "google" or "caldav" (default "google")`)
	rootCmd.PersistentFlags().StringVar(&googleCredentialsPath, "google-credentials-path", "", "Path to Google OAuth credentials JSON file")
	rootCmd.PersistentFlags().StringVar(&googleTokenPath, "google-token-path", "", "Path to store the Google OAuth token")
	rootCmd.PersistentFlags().StringVar(&caldavServerURL, "caldav-server-url", "", "CalDAV server URL (e.g. https://caldav.icloud.com)")
	rootCmd.PersistentFlags().StringVar(&caldavUsername, "caldav-username", "", "CalDAV username")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(calendarsCmd)
	rootCmd.AddCommand(suggestCmd)
}

// newAccess builds the calendar access layer for the configured backend.
// The default-calendar policy follows the backend's capability: CalDAV
// servers can name a "Default" calendar, Google exposes access roles.
func newAccess(ctx context.Context) (*calendar.Access, error) {
	cfg, err := config.Load(configFile, config.Overrides{
		Backend:               backendFlag,
		GoogleCredentialsPath: googleCredentialsPath,
		GoogleTokenPath:       googleTokenPath,
		CalDAVServerURL:       caldavServerURL,
		CalDAVUsername:        caldavUsername,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendCalDAV:
		store := calendar.NewCalDAVStore(cfg.CalDAVServerURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
		return calendar.NewAccess(store, calendar.NamedDefault), nil

	default:
		clientID, clientSecret, err := config.LoadGoogleCredentials(cfg.GoogleCredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load Google credentials: %w", err)
		}

		oauthConfig := &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "http://127.0.0.1:8080", // Updated dynamically by the auth flow
			Scopes: []string{
				gcal.CalendarScope,
				gcal.CalendarEventsScope,
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		}

		tokenStore := auth.NewFileTokenStore(cfg.GoogleTokenPath)
		httpClient, err := auth.NewClient(ctx, oauthConfig, tokenStore)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}

		store, err := calendar.NewGoogleStore(ctx, httpClient)
		if err != nil {
			return nil, err
		}
		return calendar.NewAccess(store, calendar.FirstWritable), nil
	}
}

func runTUI() {
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

	window := datewindow.New(time.Now(), access.EventsForDate)

	p := tea.NewProgram(
		ui.NewDayView(access, window),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
