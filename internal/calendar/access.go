package calendar

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// Access provides permission-gated CRUD over a calendar store. It resolves
// the default calendar on every use rather than caching it, so a calendar
// list that changes underneath the app cannot leave a stale handle behind.
type Access struct {
	store  Store
	policy DefaultPolicy
}

// NewAccess wires a store to a default-calendar policy.
func NewAccess(store Store, policy DefaultPolicy) *Access {
	return &Access{store: store, policy: policy}
}

// RequestAccess asks the store for calendar permission. Denial is an
// expected outcome and is reported as false, never as an error; transport
// failures are logged and treated as denial so the caller can fall back to
// a user-facing message.
func (a *Access) RequestAccess(ctx context.Context) bool {
	granted, err := a.store.RequestAccess(ctx)
	if err != nil {
		log.Printf("Warning: calendar access request failed: %v", err)
		return false
	}
	return granted
}

// Calendars enumerates the store's event calendars.
func (a *Access) Calendars(ctx context.Context) ([]Info, error) {
	return a.store.ListCalendars(ctx)
}

// DefaultCalendar enumerates the store's calendars and applies the
// configured policy. Returns false when no calendar qualifies or the
// enumeration itself fails.
func (a *Access) DefaultCalendar(ctx context.Context) (Info, bool) {
	calendars, err := a.store.ListCalendars(ctx)
	if err != nil {
		log.Printf("Warning: failed to list calendars: %v", err)
		return Info{}, false
	}
	return a.policy(calendars)
}

// EventsForDate returns the default calendar's events whose start falls
// within the calendar day of date, sorted ascending by start time with
// store enumeration order breaking ties. Permission denial and a missing
// default calendar both yield an empty list with no error; only the query
// itself can fail.
func (a *Access) EventsForDate(ctx context.Context, date time.Time) ([]Event, error) {
	if !a.RequestAccess(ctx) {
		return nil, nil
	}

	cal, ok := a.DefaultCalendar(ctx)
	if !ok {
		return nil, nil
	}

	start, end := DayBounds(date)
	queried, err := a.store.QueryEvents(ctx, cal.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for %s: %w", start.Format("2006-01-02"), err)
	}

	// Stores report anything overlapping the interval; the day view only
	// shows events that start on this day.
	events := make([]Event, 0, len(queried))
	for _, event := range queried {
		if event.StartTime.Before(start) || event.StartTime.After(end) {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	return events, nil
}

// AddEvent creates an event on the default calendar and returns the
// store-assigned id. The title is passed through as given; rejecting empty
// titles is left to the caller.
func (a *Access) AddEvent(ctx context.Context, title string, start, end time.Time, notes string) (string, error) {
	if !start.Before(end) {
		return "", ErrInvalidDateRange
	}

	if !a.RequestAccess(ctx) {
		return "", ErrPermissionDenied
	}

	cal, ok := a.DefaultCalendar(ctx)
	if !ok {
		return "", ErrNoWritableCalendar
	}

	id, err := a.store.CreateEvent(ctx, cal.ID, Fields{
		Title: title,
		Start: start.UTC(),
		End:   end.UTC(),
		Notes: notes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return id, nil
}

// DeleteEvent removes an event from the default calendar. The id becomes
// invalid once the call succeeds; deleting it again yields ErrEventNotFound.
func (a *Access) DeleteEvent(ctx context.Context, id string) error {
	if !a.RequestAccess(ctx) {
		return ErrPermissionDenied
	}

	cal, ok := a.DefaultCalendar(ctx)
	if !ok {
		return ErrNoWritableCalendar
	}

	if err := a.store.DeleteEvent(ctx, cal.ID, id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	return nil
}
