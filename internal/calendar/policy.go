package calendar

// DefaultPolicy selects the calendar that receives created events and backs
// day views. Which policy applies depends on what the backend can express:
// CalDAV servers surface a calendar literally named "Default", Google
// exposes per-calendar access roles instead.
//
// Both are heuristics; neither guarantees the calendar a user would have
// picked themselves. There is deliberately no user-facing override yet.
type DefaultPolicy func(calendars []Info) (Info, bool)

// NamedDefault picks the calendar whose source or name is literally
// "Default", falling back to the first enumerated calendar.
func NamedDefault(calendars []Info) (Info, bool) {
	for _, c := range calendars {
		if c.Source == "Default" || c.Name == "Default" {
			return c, true
		}
	}
	if len(calendars) > 0 {
		return calendars[0], true
	}
	return Info{}, false
}

// FirstWritable picks the first calendar, in enumeration order, that the
// current user owns or can edit.
func FirstWritable(calendars []Info) (Info, bool) {
	for _, c := range calendars {
		if c.AccessRole.CanWrite() {
			return c, true
		}
	}
	return Info{}, false
}
