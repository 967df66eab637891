package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPermissionDenied is returned by mutating operations when the user
	// has not granted calendar access. Read operations report denial as an
	// empty result instead.
	ErrPermissionDenied = errors.New("calendar access not granted")

	// ErrNoWritableCalendar is returned when no calendar suitable for
	// writing events can be resolved from the store.
	ErrNoWritableCalendar = errors.New("no writable calendar found")

	// ErrEventNotFound is returned by DeleteEvent when the event id is
	// unknown to the store or the event was already deleted.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidDateRange is returned when an event's end does not come
	// after its start.
	ErrInvalidDateRange = errors.New("event end must be after start")
)

// AccessRole describes the level of access the current user has on a
// calendar, in increasing order of capability.
type AccessRole int

const (
	RoleNone AccessRole = iota
	RoleReader
	RoleEditor
	RoleOwner
)

// CanWrite reports whether the role permits creating and deleting events.
func (r AccessRole) CanWrite() bool {
	return r == RoleEditor || r == RoleOwner
}

func (r AccessRole) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleEditor:
		return "editor"
	case RoleOwner:
		return "owner"
	default:
		return "none"
	}
}

// Info describes one calendar enumerated from the store.
type Info struct {
	ID         string
	Name       string
	Source     string
	AccessRole AccessRole
}

// Event is a single calendar event as read from the store. An Event
// retrieved from the store always carries a store-assigned ID; an event
// being created does not yet have one.
type Event struct {
	ID         string
	Title      string
	StartTime  time.Time
	EndTime    time.Time
	Notes      string
	CalendarID string
}

// Fields holds the writable attributes of a new event. Times are converted
// to UTC before they reach the store so events render consistently across
// devices.
type Fields struct {
	Title string
	Start time.Time
	End   time.Time
	Notes string
}

// Store is the boundary to a platform calendar service. Implementations
// exist for Google Calendar and CalDAV servers; tests substitute in-memory
// fakes.
type Store interface {
	// RequestAccess asks the platform for permission to read and write
	// calendar data. A denied grant is reported as (false, nil); the error
	// is reserved for transport failures.
	RequestAccess(ctx context.Context) (bool, error)

	// ListCalendars enumerates the calendars that accept events.
	ListCalendars(ctx context.Context) ([]Info, error)

	// QueryEvents returns the raw events of one calendar whose start time
	// falls within [start, end]. Order is the store's enumeration order.
	QueryEvents(ctx context.Context, calendarID string, start, end time.Time) ([]Event, error)

	// CreateEvent writes a new event and returns the store-assigned id.
	CreateEvent(ctx context.Context, calendarID string, fields Fields) (string, error)

	// DeleteEvent removes an event. Unknown ids yield ErrEventNotFound.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// DayBounds returns the closed interval covering the calendar day of date
// in its location: 00:00:00.000 through 23:59:59.999. The end is built from
// wall-clock components rather than a duration, so days that gain or lose an
// hour to DST still end at 23:59:59.999 local time.
func DayBounds(date time.Time) (start, end time.Time) {
	start = Midnight(date)
	end = time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, int(999*time.Millisecond), date.Location())
	return start, end
}

// Midnight normalizes a timestamp to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
