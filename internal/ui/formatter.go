package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/notexe/rimix/internal/engine"
	"github.com/notexe/rimix/internal/reminder"
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("183")). // Soft purple
			Italic(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Medium gray
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Green
			Bold(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147")) // Light purple

	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("215")). // Orange
			Padding(0, 1)

	priorityStyles = map[string]lipgloss.Style{
		reminder.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		reminder.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("222")),
		reminder.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}

	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
)

// ShortIDLen is how many ID characters are shown and accepted as a prefix.
const ShortIDLen = 8

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if !f.colored {
		return s
	}
	return style.Render(s)
}

func (f *Formatter) FormatError(err error) string {
	return f.render(ErrorStyle, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	return f.render(InfoStyle, info)
}

func (f *Formatter) FormatSystem(msg string) string {
	return f.render(SystemStyle, msg)
}

func (f *Formatter) FormatStatus(msg string) string {
	return f.render(StatusStyle, msg)
}

func (f *Formatter) FormatSuccess(msg string) string {
	return f.render(SuccessStyle, "✓ ") + msg
}

// ShortID trims an ID for display.
func ShortID(id string) string {
	if len(id) > ShortIDLen {
		return id[:ShortIDLen]
	}
	return id
}

// FormatReminder renders one reminder as a single row.
func (f *Formatter) FormatReminder(r reminder.Reminder) string {
	check := "[ ]"
	if r.Completed {
		check = "[x]"
	}

	marker := " "
	switch r.Priority {
	case reminder.PriorityHigh:
		marker = "!"
	case reminder.PriorityLow:
		marker = "·"
	}

	title := r.Title
	if r.Completed {
		title = f.render(doneStyle, title)
	} else if style, ok := priorityStyles[r.Priority]; ok {
		marker = f.render(style, marker)
	}

	parts := []string{
		f.render(DimStyle, check),
		f.render(AccentStyle, ShortID(r.ID)),
		marker,
		title,
	}
	if when := FormatWhen(r); when != "" {
		parts = append(parts, f.render(StatusStyle, when))
	}
	if r.Category != "" {
		parts = append(parts, f.render(DimStyle, "#"+r.Category))
	}

	return strings.Join(parts, "  ")
}

// FormatWhen renders the schedule part of a reminder.
func FormatWhen(r reminder.Reminder) string {
	switch {
	case r.Date != "" && r.Time != "":
		return r.Date + " " + r.Time
	case r.Date != "":
		return r.Date
	case r.Time != "":
		return "at " + r.Time
	}
	return ""
}

func (f *Formatter) FormatReminderList(title string, items []reminder.Reminder, total int) string {
	var sb strings.Builder

	sb.WriteString(f.render(HeaderStyle, title))
	if total > len(items) {
		sb.WriteString(f.render(DimStyle, fmt.Sprintf("  (%d of %d)", len(items), total)))
	}
	sb.WriteString("\n")

	if len(items) == 0 {
		sb.WriteString(f.render(DimStyle, "  No reminders."))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, r := range items {
		sb.WriteString("  ")
		sb.WriteString(f.FormatReminder(r))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatToast renders the in-app notice for a fired reminder.
func (f *Formatter) FormatToast(fired engine.Fired, alarm engine.AlarmState) string {
	lines := []string{f.render(HeaderStyle, "⏰ "+fired.Title)}
	if fired.Description != "" {
		lines = append(lines, fired.Description)
	}
	if !fired.DueAt.IsZero() {
		lines = append(lines, f.render(StatusStyle, "Due "+fired.DueAt.Format("Mon 15:04")))
	}
	if alarm.Armed || alarm.Sounding {
		lines = append(lines, f.render(InfoStyle, "/alarm dismiss to silence the alarm"))
	}

	body := strings.Join(lines, "\n")
	if !f.colored {
		return "\n* " + strings.ReplaceAll(body, "\n", "\n  ") + "\n"
	}
	return "\n" + ToastStyle.Render(body) + "\n"
}

func (f *Formatter) FormatAlarmState(s engine.AlarmState) string {
	armed := "off"
	if s.Armed {
		armed = "on"
	}
	sounding := "idle"
	if s.Sounding {
		sounding = "sounding"
	}
	return fmt.Sprintf("%s %s  %s %s",
		f.render(DimStyle, "alarm:"), armed,
		f.render(DimStyle, "state:"), f.render(InfoStyle, sounding))
}

// FormatToggles renders named on/off switches, sorted by name.
func (f *Formatter) FormatToggles(toggles map[string]bool) string {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		state := f.render(DimStyle, "off")
		if toggles[name] {
			state = f.render(SuccessStyle, "on")
		}
		lines = append(lines, fmt.Sprintf("  %-8s %s", name, state))
	}
	return strings.Join(lines, "\n")
}

// FormatCountdown renders a running timer's remaining time.
func (f *Formatter) FormatCountdown(label string, remaining time.Duration) string {
	remaining = remaining.Round(time.Second)
	return f.render(AccentStyle, "⏱ "+label) + " " + f.render(StatusStyle, remaining.String()+" left")
}

func (f *Formatter) FormatWelcome(extractor string, pending int) string {
	title := "rimix • reminders"
	extractLine := "Extractor: " + extractor
	pendingLine := fmt.Sprintf("Pending: %d", pending)
	helpLine := "Type /help for commands, or just write a reminder"

	if !f.colored {
		return strings.Join([]string{"", title, extractLine, pendingLine, helpLine, "", ""}, "\n")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	content := strings.Join([]string{
		HeaderStyle.Render(title),
		DimStyle.Render("Extractor: ") + SuccessStyle.UnsetBold().Render(extractor),
		DimStyle.Render("Pending: ") + InfoStyle.Render(fmt.Sprint(pending)),
		"",
		StatusStyle.UnsetItalic().Render(helpLine),
	}, "\n")

	return "\n" + box.Render(content) + "\n\n"
}

// FormatPrompt returns a styled input prompt
func (f *Formatter) FormatPrompt() string {
	if f.colored {
		promptStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))
		arrowStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true)
		return promptStyle.Render("rimix") + arrowStyle.Render(" > ")
	}
	return "rimix > "
}
