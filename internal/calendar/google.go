package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleStore talks to the Google Calendar API. Google has no calendar
// literally named "Default", so it pairs with the FirstWritable policy.
type GoogleStore struct {
	service *gcal.Service
}

// NewGoogleStore creates a Google Calendar store using the provided
// authenticated HTTP client.
func NewGoogleStore(ctx context.Context, httpClient *http.Client) (*GoogleStore, error) {
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleStore{service: service}, nil
}

// RequestAccess probes the calendar list with a minimal request. The OAuth
// consent screen is Google's permission prompt; a grant revoked after the
// fact surfaces here as 401/403, which is a denial, not an error.
func (s *GoogleStore) RequestAccess(ctx context.Context) (bool, error) {
	_, err := s.service.CalendarList.List().MaxResults(1).Context(ctx).Do()
	if err != nil {
		if isGoogleStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe calendar access: %w", err)
	}
	return true, nil
}

// ListCalendars enumerates the user's calendar list with access roles.
func (s *GoogleStore) ListCalendars(ctx context.Context) ([]Info, error) {
	list, err := s.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Google: failed to list calendars: %w", err)
	}

	infos := make([]Info, 0, len(list.Items))
	for _, item := range list.Items {
		infos = append(infos, Info{
			ID:         item.Id,
			Name:       item.Summary,
			Source:     item.Summary,
			AccessRole: roleFromGoogle(item.AccessRole),
		})
	}

	return infos, nil
}

// QueryEvents lists a calendar's events within [start, end].
// Sets SingleEvents so recurring events arrive as concrete instances.
func (s *GoogleStore) QueryEvents(ctx context.Context, calendarID string, start, end time.Time) ([]Event, error) {
	list, err := s.service.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []Event
	for _, item := range list.Items {
		event, err := eventFromGoogle(item, calendarID)
		if err != nil {
			// Malformed items are skipped rather than failing the whole day.
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// CreateEvent inserts a new event. Sets sendUpdates="none" so attendees
// are never notified by a personal planning tool.
func (s *GoogleStore) CreateEvent(ctx context.Context, calendarID string, fields Fields) (string, error) {
	event := &gcal.Event{
		Summary:     fields.Title,
		Description: fields.Notes,
		Start: &gcal.EventDateTime{
			DateTime: fields.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: fields.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := s.service.Events.Insert(calendarID, event).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	return created.Id, nil
}

// DeleteEvent removes an event. Google answers 404 for unknown ids and 410
// for ids that were already deleted; both map to ErrEventNotFound.
func (s *GoogleStore) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := s.service.Events.Delete(calendarID, eventID).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		if isGoogleStatus(err, http.StatusNotFound, http.StatusGone) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

// eventFromGoogle converts an API event into the internal model. All-day
// events carry a date instead of a datetime and are pinned to midnight UTC.
func eventFromGoogle(item *gcal.Event, calendarID string) (Event, error) {
	start, err := parseGoogleTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse event start time: %w", err)
	}

	end, err := parseGoogleTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse event end time: %w", err)
	}

	return Event{
		ID:         item.Id,
		Title:      item.Summary,
		StartTime:  start,
		EndTime:    end,
		Notes:      item.Description,
		CalendarID: calendarID,
	}, nil
}

func parseGoogleTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	if edt.Date != "" {
		return time.Parse("2006-01-02", edt.Date)
	}
	return time.Time{}, fmt.Errorf("event time has neither date nor dateTime")
}

func roleFromGoogle(accessRole string) AccessRole {
	switch accessRole {
	case "owner":
		return RoleOwner
	case "writer":
		return RoleEditor
	case "reader", "freeBusyReader":
		return RoleReader
	default:
		return RoleNone
	}
}

func isGoogleStatus(err error, codes ...int) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}
