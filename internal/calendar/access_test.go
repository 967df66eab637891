package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockStore is an in-memory Store for testing. Like a real store it hands
// out ids and keeps events per calendar; unlike a real store it returns a
// calendar's full event list and lets Access do the day filtering.
type mockStore struct {
	granted      bool
	accessErr    error
	calendars    []Info
	calendarsErr error
	events       map[string][]Event
	queryErr     error
	nextID       int
	deletedIDs   []string
}

func newMockStore(granted bool, calendars ...Info) *mockStore {
	return &mockStore{
		granted:   granted,
		calendars: calendars,
		events:    make(map[string][]Event),
	}
}

func (m *mockStore) RequestAccess(ctx context.Context) (bool, error) {
	return m.granted, m.accessErr
}

func (m *mockStore) ListCalendars(ctx context.Context) ([]Info, error) {
	return m.calendars, m.calendarsErr
}

func (m *mockStore) QueryEvents(ctx context.Context, calendarID string, start, end time.Time) ([]Event, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.events[calendarID], nil
}

func (m *mockStore) CreateEvent(ctx context.Context, calendarID string, fields Fields) (string, error) {
	m.nextID++
	id := fmt.Sprintf("evt_%d", m.nextID)
	m.events[calendarID] = append(m.events[calendarID], Event{
		ID:         id,
		Title:      fields.Title,
		StartTime:  fields.Start,
		EndTime:    fields.End,
		Notes:      fields.Notes,
		CalendarID: calendarID,
	})
	return id, nil
}

func (m *mockStore) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	events := m.events[calendarID]
	for i, e := range events {
		if e.ID == eventID {
			m.events[calendarID] = append(events[:i], events[i+1:]...)
			m.deletedIDs = append(m.deletedIDs, eventID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
}

func writableCalendar() Info {
	return Info{ID: "cal_1", Name: "Personal", Source: "Personal", AccessRole: RoleOwner}
}

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.Local)
}

func at(d time.Time, hour, min int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, d.Location())
}

func TestEventsForDate_PermissionDenied(t *testing.T) {
	store := newMockStore(false, writableCalendar())
	access := NewAccess(store, FirstWritable)

	events, err := access.EventsForDate(context.Background(), day(2026, time.September, 3))
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("EventsForDate() = %d events, want 0 when permission is denied", len(events))
	}
}

func TestEventsForDate_NoDefaultCalendar(t *testing.T) {
	store := newMockStore(true) // granted, but nothing to resolve
	access := NewAccess(store, FirstWritable)

	events, err := access.EventsForDate(context.Background(), day(2026, time.September, 3))
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("EventsForDate() = %d events, want 0 when no calendar resolves", len(events))
	}
}

func TestEventsForDate_FiltersToDayAndSorts(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	d := day(2026, time.September, 3)
	store.events["cal_1"] = []Event{
		{ID: "late", Title: "Dinner", StartTime: at(d, 19, 0), EndTime: at(d, 20, 0)},
		{ID: "spillover", Title: "Overnight", StartTime: at(d.AddDate(0, 0, -1), 23, 0), EndTime: at(d, 1, 0)},
		{ID: "early", Title: "Yoga", StartTime: at(d, 7, 30), EndTime: at(d, 7, 45)},
		{ID: "tomorrow", Title: "Standup", StartTime: at(d.AddDate(0, 0, 1), 9, 0), EndTime: at(d.AddDate(0, 0, 1), 9, 15)},
	}

	events, err := access.EventsForDate(context.Background(), d)
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}

	want := []string{"early", "late"}
	if len(events) != len(want) {
		t.Fatalf("EventsForDate() = %d events, want %d", len(events), len(want))
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, id)
		}
	}
}

func TestEventsForDate_StableSortOnTies(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	d := day(2026, time.September, 3)
	start := at(d, 9, 0)
	store.events["cal_1"] = []Event{
		{ID: "first", Title: "A", StartTime: start, EndTime: at(d, 10, 0)},
		{ID: "second", Title: "B", StartTime: start, EndTime: at(d, 9, 30)},
	}

	events, err := access.EventsForDate(context.Background(), d)
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}
	if len(events) != 2 || events[0].ID != "first" || events[1].ID != "second" {
		t.Errorf("tied events reordered: got %v", []string{events[0].ID, events[1].ID})
	}
}

func TestEventsForDate_IncludesDayEdges(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	d := day(2026, time.September, 3)
	midnight := at(d, 0, 0)
	lastMoment := at(d, 23, 59).Add(59*time.Second + 999*time.Millisecond)
	store.events["cal_1"] = []Event{
		{ID: "last", StartTime: lastMoment, EndTime: lastMoment.Add(time.Minute)},
		{ID: "midnight", StartTime: midnight, EndTime: midnight.Add(time.Hour)},
	}

	events, err := access.EventsForDate(context.Background(), d)
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("EventsForDate() = %d events, want both day-edge events", len(events))
	}
	if events[0].ID != "midnight" || events[1].ID != "last" {
		t.Errorf("events out of order: got %q, %q", events[0].ID, events[1].ID)
	}
}

func TestEventsForDate_QueryError(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	store.queryErr = errors.New("store unavailable")
	access := NewAccess(store, FirstWritable)

	_, err := access.EventsForDate(context.Background(), day(2026, time.September, 3))
	if err == nil {
		t.Fatal("EventsForDate() should propagate query failures")
	}
}

func TestAddEvent_RoundTrip(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)
	ctx := context.Background()

	d := day(2026, time.September, 3)
	start, end := at(d, 7, 30), at(d, 7, 45)

	id, err := access.AddEvent(ctx, "Morning Yoga", start, end, "Scheduled via Daybook")
	if err != nil {
		t.Fatalf("AddEvent() returned an error: %v", err)
	}
	if id == "" {
		t.Fatal("AddEvent() returned an empty id")
	}

	events, err := access.EventsForDate(ctx, d)
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}

	found := false
	for _, e := range events {
		if e.ID == id {
			found = true
			if e.Title != "Morning Yoga" {
				t.Errorf("event title = %q, want %q", e.Title, "Morning Yoga")
			}
			if !e.StartTime.Equal(start) || !e.EndTime.Equal(end) {
				t.Errorf("event times = %v..%v, want %v..%v", e.StartTime, e.EndTime, start, end)
			}
		}
	}
	if !found {
		t.Errorf("created event %s not returned for its day", id)
	}
}

func TestAddEvent_StoresUTC(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	start := time.Date(2026, time.September, 3, 7, 30, 0, 0, time.FixedZone("UTC+9", 9*3600))
	_, err := access.AddEvent(context.Background(), "Morning Yoga", start, start.Add(15*time.Minute), "")
	if err != nil {
		t.Fatalf("AddEvent() returned an error: %v", err)
	}

	stored := store.events["cal_1"][0]
	if stored.StartTime.Location() != time.UTC {
		t.Errorf("stored start location = %v, want UTC", stored.StartTime.Location())
	}
	if !stored.StartTime.Equal(start) {
		t.Errorf("UTC conversion changed the instant: %v != %v", stored.StartTime, start)
	}
}

func TestAddEvent_NoWritableCalendar(t *testing.T) {
	readOnly := Info{ID: "cal_ro", Name: "Holidays", AccessRole: RoleReader}
	store := newMockStore(true, readOnly)
	access := NewAccess(store, FirstWritable)

	id, err := access.AddEvent(context.Background(), "Morning Yoga",
		day(2026, time.September, 3), day(2026, time.September, 3).Add(time.Hour), "")
	if !errors.Is(err, ErrNoWritableCalendar) {
		t.Fatalf("AddEvent() error = %v, want ErrNoWritableCalendar", err)
	}
	if id != "" {
		t.Errorf("AddEvent() returned id %q on failure, want empty", id)
	}
}

func TestAddEvent_PermissionDenied(t *testing.T) {
	store := newMockStore(false, writableCalendar())
	access := NewAccess(store, FirstWritable)

	_, err := access.AddEvent(context.Background(), "Morning Yoga",
		day(2026, time.September, 3), day(2026, time.September, 3).Add(time.Hour), "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("AddEvent() error = %v, want ErrPermissionDenied", err)
	}
}

func TestAddEvent_InvalidDateRange(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	start := day(2026, time.September, 3)
	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		if _, err := access.AddEvent(context.Background(), "Backwards", start, end, ""); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("AddEvent(end=%v) error = %v, want ErrInvalidDateRange", end, err)
		}
	}
	if len(store.events["cal_1"]) != 0 {
		t.Error("invalid ranges must not reach the store")
	}
}

func TestDeleteEvent_RemovesFromDay(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)
	ctx := context.Background()

	d := day(2026, time.September, 3)
	id, err := access.AddEvent(ctx, "Lunch Walk", at(d, 12, 0), at(d, 12, 20), "")
	if err != nil {
		t.Fatalf("AddEvent() returned an error: %v", err)
	}

	if err := access.DeleteEvent(ctx, id); err != nil {
		t.Fatalf("DeleteEvent() returned an error: %v", err)
	}

	events, err := access.EventsForDate(ctx, d)
	if err != nil {
		t.Fatalf("EventsForDate() returned an error: %v", err)
	}
	for _, e := range events {
		if e.ID == id {
			t.Errorf("deleted event %s still listed", id)
		}
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)

	err := access.DeleteEvent(context.Background(), "evt_missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("DeleteEvent() error = %v, want ErrEventNotFound", err)
	}
}

func TestDeleteEvent_SecondDeleteFails(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	access := NewAccess(store, FirstWritable)
	ctx := context.Background()

	d := day(2026, time.September, 3)
	id, err := access.AddEvent(ctx, "Evening Meditation", at(d, 21, 0), at(d, 21, 10), "")
	if err != nil {
		t.Fatalf("AddEvent() returned an error: %v", err)
	}

	if err := access.DeleteEvent(ctx, id); err != nil {
		t.Fatalf("first DeleteEvent() returned an error: %v", err)
	}
	if err := access.DeleteEvent(ctx, id); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("second DeleteEvent() error = %v, want ErrEventNotFound", err)
	}
}

func TestRequestAccess_TransportFailureIsDenial(t *testing.T) {
	store := newMockStore(true, writableCalendar())
	store.accessErr = errors.New("network down")
	access := NewAccess(store, FirstWritable)

	if access.RequestAccess(context.Background()) {
		t.Error("RequestAccess() = true despite transport failure")
	}
}
