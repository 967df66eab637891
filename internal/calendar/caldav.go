package calendar

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// CalDAVStore talks to a CalDAV server such as iCloud. Apple-style servers
// surface a calendar named "Default", so it pairs with the NamedDefault
// policy.
type CalDAVStore struct {
	httpClient *http.Client
	serverURL  string
	username   string
	password   string
	basePath   string
}

// NewCalDAVStore creates a CalDAV store.
// serverURL is the CalDAV endpoint (e.g. "https://caldav.icloud.com");
// password should be an app-specific password for iCloud accounts.
func NewCalDAVStore(serverURL, username, password string) *CalDAVStore {
	return &CalDAVStore{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		serverURL:  serverURL,
		username:   username,
		password:   password,
		// iCloud keeps calendar collections under /{user}/calendars/.
		basePath: fmt.Sprintf("/%s/calendars/", username),
	}
}

// makeRequest makes an authenticated HTTP request to the CalDAV server.
func (s *CalDAVStore) makeRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := strings.TrimSuffix(s.serverURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(s.username, s.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	req.Header.Set("Depth", "1")

	return s.httpClient.Do(req)
}

const listCalendarsBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:displayname/>
    <d:resourcetype/>
  </d:prop>
</d:propfind>`

// RequestAccess probes the calendar home with a PROPFIND. Rejected
// credentials come back as 401/403, which is a denial, not an error.
func (s *CalDAVStore) RequestAccess(ctx context.Context) (bool, error) {
	resp, err := s.makeRequest(ctx, "PROPFIND", s.basePath, strings.NewReader(listCalendarsBody))
	if err != nil {
		return false, fmt.Errorf("failed to probe calendar access: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	case http.StatusOK, http.StatusMultiStatus:
		return true, nil
	default:
		return false, fmt.Errorf("failed to probe calendar access: HTTP %d", resp.StatusCode)
	}
}

// ListCalendars enumerates the calendar collections under the calendar
// home. CalDAV exposes no access roles here; a collection the account can
// see is treated as owned.
func (s *CalDAVStore) ListCalendars(ctx context.Context) ([]Info, error) {
	resp, err := s.makeRequest(ctx, "PROPFIND", s.basePath, strings.NewReader(listCalendarsBody))
	if err != nil {
		return nil, fmt.Errorf("CalDAV: failed to list calendars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CalDAV: failed to list calendars: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseCalendarList(body)
}

// QueryEvents issues a calendar-query REPORT for the time range and decodes
// the returned iCalendar payloads.
func (s *CalDAVStore) QueryEvents(ctx context.Context, calendarID string, start, end time.Time) ([]Event, error) {
	queryBody := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="%s" end="%s"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`,
		start.UTC().Format("20060102T150405Z"), end.UTC().Format("20060102T150405Z"))

	resp, err := s.makeRequest(ctx, "REPORT", calendarID, strings.NewReader(queryBody))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return nil, fmt.Errorf("failed to query calendar: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payloads, err := parseCalendarData(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CalDAV response: %w", err)
	}

	var events []Event
	for _, payload := range payloads {
		cal, err := ical.NewDecoder(strings.NewReader(payload)).Decode()
		if err != nil {
			// One malformed object should not hide the rest of the day.
			continue
		}

		event, err := eventFromICal(cal, calendarID)
		if err != nil {
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// CreateEvent encodes the event as iCalendar and PUTs it under a fresh UID.
func (s *CalDAVStore) CreateEvent(ctx context.Context, calendarID string, fields Fields) (string, error) {
	uid := uuid.NewString()

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(icalFromFields(uid, fields)); err != nil {
		return "", fmt.Errorf("failed to encode iCalendar: %w", err)
	}

	resp, err := s.makeRequest(ctx, "PUT", s.eventPath(calendarID, uid), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("failed to insert event: HTTP %d", resp.StatusCode)
	}

	return uid, nil
}

// DeleteEvent removes the event object stored under the UID.
func (s *CalDAVStore) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	resp, err := s.makeRequest(ctx, "DELETE", s.eventPath(calendarID, eventID), nil)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	default:
		return fmt.Errorf("failed to delete event: HTTP %d", resp.StatusCode)
	}
}

// eventPath maps an event UID to the object path used for PUT and DELETE.
func (s *CalDAVStore) eventPath(calendarID, uid string) string {
	return calendarID + uid + ".ics"
}

// parseCalendarList parses a PROPFIND multistatus response into calendar
// infos, keeping only calendar collections.
func parseCalendarList(body []byte) ([]Info, error) {
	type resourceType struct {
		Calendar *struct{} `xml:"calendar"`
	}

	type prop struct {
		DisplayName  string       `xml:"displayname"`
		ResourceType resourceType `xml:"resourcetype"`
	}

	type response struct {
		Href string `xml:"href"`
		Prop prop   `xml:"propstat>prop"`
	}

	type multistatus struct {
		XMLName   xml.Name   `xml:"multistatus"`
		Responses []response `xml:"response"`
	}

	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	var infos []Info
	for _, resp := range ms.Responses {
		if resp.Prop.ResourceType.Calendar == nil {
			continue
		}

		href := resp.Href
		if !strings.HasSuffix(href, "/") {
			href += "/"
		}

		infos = append(infos, Info{
			ID:         href,
			Name:       resp.Prop.DisplayName,
			Source:     resp.Prop.DisplayName,
			AccessRole: RoleOwner,
		})
	}

	return infos, nil
}

// parseCalendarData extracts the calendar-data payloads from a REPORT
// multistatus response.
func parseCalendarData(body []byte) ([]string, error) {
	type calendarData struct {
		Data string `xml:",chardata"`
	}

	type prop struct {
		CalendarData calendarData `xml:"calendar-data"`
	}

	type response struct {
		Prop prop `xml:"propstat>prop"`
	}

	type multistatus struct {
		XMLName   xml.Name   `xml:"multistatus"`
		Responses []response `xml:"response"`
	}

	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	var payloads []string
	for _, resp := range ms.Responses {
		if resp.Prop.CalendarData.Data != "" {
			payloads = append(payloads, resp.Prop.CalendarData.Data)
		}
	}

	return payloads, nil
}

// eventFromICal converts the first VEVENT of a decoded calendar into the
// internal model.
func eventFromICal(cal *ical.Calendar, calendarID string) (Event, error) {
	var vevent *ical.Component
	for _, comp := range cal.Children {
		if comp.Name == ical.CompEvent {
			vevent = comp
			break
		}
	}
	if vevent == nil {
		return Event{}, fmt.Errorf("no VEVENT found in calendar object")
	}

	event := Event{CalendarID: calendarID}

	if uid := vevent.Props.Get(ical.PropUID); uid != nil {
		event.ID = uid.Value
	}
	if summary := vevent.Props.Get(ical.PropSummary); summary != nil {
		event.Title = summary.Value
	}
	if desc := vevent.Props.Get(ical.PropDescription); desc != nil {
		event.Notes = desc.Value
	}

	if dtstart := vevent.Props.Get(ical.PropDateTimeStart); dtstart != nil {
		start, err := dtstart.DateTime(time.UTC)
		if err != nil {
			return Event{}, fmt.Errorf("failed to parse DTSTART: %w", err)
		}
		event.StartTime = start
	}
	if dtend := vevent.Props.Get(ical.PropDateTimeEnd); dtend != nil {
		end, err := dtend.DateTime(time.UTC)
		if err != nil {
			return Event{}, fmt.Errorf("failed to parse DTEND: %w", err)
		}
		event.EndTime = end
	}

	if event.ID == "" {
		return Event{}, fmt.Errorf("event has no UID")
	}

	return event, nil
}

// icalFromFields builds the iCalendar object for a new event.
func icalFromFields(uid string, fields Fields) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Daybook//EN")

	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetText(ical.PropSummary, fields.Title)
	if fields.Notes != "" {
		vevent.Props.SetText(ical.PropDescription, fields.Notes)
	}
	vevent.Props.SetDateTime(ical.PropDateTimeStart, fields.Start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, fields.End.UTC())

	now := time.Now().UTC()
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)
	vevent.Props.SetDateTime(ical.PropCreated, now)
	vevent.Props.SetDateTime(ical.PropLastModified, now)

	cal.Children = append(cal.Children, vevent)
	return cal
}
