package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zumlo/daybook/internal/calendar"
	"github.com/zumlo/daybook/internal/datewindow"
)

// View states
type dayViewState int

const (
	stateBrowse dayViewState = iota
	stateDeleteConfirm
)

// Palette
var (
	colorPrimary = lipgloss.Color("12")
	colorMuted   = lipgloss.Color("8")
	colorDanger  = lipgloss.Color("9")
	colorAccent  = lipgloss.Color("10")
)

// Messages
type reloadedMsg struct{}

type deleteDoneMsg struct{}

type errMsg struct {
	err error
}

// DayView is the day-browser TUI model. It renders whatever the date
// window holds and forwards navigation and deletion to the core.
type DayView struct {
	access *calendar.Access
	window *datewindow.Window

	width       int
	height      int
	selectedIdx int
	state       dayViewState
	err         error
}

// NewDayView creates the day-view model around an already-permitted access
// layer and a fresh window.
func NewDayView(access *calendar.Access, window *datewindow.Window) *DayView {
	return &DayView{access: access, window: window}
}

func (m *DayView) Init() tea.Cmd {
	return m.refresh()
}

func (m *DayView) refresh() tea.Cmd {
	return func() tea.Msg {
		m.window.Refresh(context.Background())
		return reloadedMsg{}
	}
}

func (m *DayView) goPrev() tea.Cmd {
	return func() tea.Msg {
		m.window.GoPrev(context.Background())
		return reloadedMsg{}
	}
}

func (m *DayView) goNext() tea.Cmd {
	return func() tea.Msg {
		m.window.GoNext(context.Background())
		return reloadedMsg{}
	}
}

// deleteEvent awaits the store deletion before reloading, so the reload
// cannot observe the event it just removed.
func (m *DayView) deleteEvent(id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.access.DeleteEvent(ctx, id); err != nil {
			return errMsg{err}
		}
		m.window.Refresh(ctx)
		return deleteDoneMsg{}
	}
}

func (m *DayView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reloadedMsg:
		m.clampSelection()
		return m, nil

	case deleteDoneMsg:
		m.state = stateBrowse
		m.err = nil
		m.clampSelection()
		return m, nil

	case errMsg:
		m.state = stateBrowse
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m *DayView) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateDeleteConfirm {
		return m.handleDeleteKeys(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.window.CanGoPrev() {
			m.selectedIdx = 0
			m.err = nil
			return m, m.goPrev()
		}
		return m, nil

	case key.Matches(msg, keys.Right):
		if m.window.CanGoNext() {
			m.selectedIdx = 0
			m.err = nil
			return m, m.goNext()
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.selectedIdx < len(m.window.Events())-1 {
			m.selectedIdx++
		}
		return m, nil

	case key.Matches(msg, keys.Reload):
		m.err = nil
		return m, m.refresh()

	case key.Matches(msg, keys.Delete):
		if len(m.window.Events()) > 0 {
			m.state = stateDeleteConfirm
		}
		return m, nil
	}

	return m, nil
}

func (m *DayView) handleDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		events := m.window.Events()
		if m.selectedIdx < len(events) {
			return m, m.deleteEvent(events[m.selectedIdx].ID)
		}
		m.state = stateBrowse
		return m, nil

	case "n", "N", "esc", "q":
		m.state = stateBrowse
		return m, nil
	}

	return m, nil
}

func (m *DayView) clampSelection() {
	count := len(m.window.Events())
	if m.selectedIdx >= count {
		m.selectedIdx = count - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
}

func (m *DayView) View() string {
	if m.state == stateDeleteConfirm {
		return m.renderDeleteConfirm()
	}
	return m.renderDay()
}

func (m *DayView) renderDay() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.window.Loading() {
		b.WriteString(lipgloss.NewStyle().Foreground(colorMuted).Render("  Loading..."))
		b.WriteString("\n")
	} else {
		events := m.window.Events()
		if len(events) == 0 {
			b.WriteString(lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true).
				Render("  No events for this day."))
			b.WriteString("\n")
		} else {
			for i, event := range events {
				b.WriteString(m.renderEvent(event, i == m.selectedIdx))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")

	if err := m.reloadErr(); err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(colorDanger).Render(fmt.Sprintf("Error: %v", err)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpBar())

	return b.String()
}

// reloadErr surfaces a mutation error first, then the window's last reload
// error. Either way the list shown is the last successfully loaded one.
func (m *DayView) reloadErr() error {
	if m.err != nil {
		return m.err
	}
	return m.window.Err()
}

func (m *DayView) renderHeader() string {
	dateStyle := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	arrowStyle := lipgloss.NewStyle().Foreground(colorAccent)
	dimmedStyle := lipgloss.NewStyle().Foreground(colorMuted)

	prev := dimmedStyle.Render("◀")
	if m.window.CanGoPrev() {
		prev = arrowStyle.Render("◀")
	}
	next := dimmedStyle.Render("▶")
	if m.window.CanGoNext() {
		next = arrowStyle.Render("▶")
	}

	return fmt.Sprintf(" %s  %s  %s",
		prev,
		dateStyle.Render(m.window.Current().Format("Mon, Jan 2, 2006")),
		next)
}

func (m *DayView) renderEvent(event calendar.Event, selected bool) string {
	timeStr := fmt.Sprintf("%s - %s",
		event.StartTime.Local().Format("15:04"),
		event.EndTime.Local().Format("15:04"))

	timeStyle := lipgloss.NewStyle().Foreground(colorMuted).Width(16)
	titleStyle := lipgloss.NewStyle()

	prefix := "  "
	if selected {
		prefix = lipgloss.NewStyle().Foreground(colorPrimary).Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	}

	return prefix + timeStyle.Render(timeStr) + titleStyle.Render(event.Title)
}

func (m *DayView) renderDeleteConfirm() string {
	var b strings.Builder

	var title string
	events := m.window.Events()
	if m.selectedIdx < len(events) {
		title = events[m.selectedIdx].Title
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorDanger).Render("Delete Event?"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Are you sure you want to remove \"%s\" from your calendar?\n\n", title))
	b.WriteString(lipgloss.NewStyle().Foreground(colorMuted).Render("y: yes  n: no"))

	return b.String()
}

func (m *DayView) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().Foreground(colorMuted)
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	help := []string{
		keyStyle.Render("←/→") + " day",
		keyStyle.Render("↑/↓") + " select",
		keyStyle.Render("d") + " delete",
		keyStyle.Render("r") + " reload",
		keyStyle.Render("q") + " quit",
	}

	return helpStyle.Render(strings.Join(help, "  "))
}

// Key bindings
var keys = struct {
	Quit   key.Binding
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Reload key.Binding
	Delete key.Binding
}{
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	Left:   key.NewBinding(key.WithKeys("left", "h")),
	Right:  key.NewBinding(key.WithKeys("right", "l")),
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Reload: key.NewBinding(key.WithKeys("r")),
	Delete: key.NewBinding(key.WithKeys("d", "x")),
}
