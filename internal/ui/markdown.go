package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/notexe/rimix/internal/reminder"
)

// RenderMarkdown renders markdown for the terminal. Plain output, or any
// renderer failure, returns the source unchanged.
func (f *Formatter) RenderMarkdown(content string) string {
	if !f.colored {
		return content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n") + "\n"
}

// Command is one row of the help table.
type Command struct {
	Usage string
	Desc  string
}

// CommandGroup is a titled section of the help table.
type CommandGroup struct {
	Title    string
	Commands []Command
}

func (f *Formatter) FormatHelp(groups []CommandGroup, tips []string) string {
	var sb strings.Builder

	sb.WriteString("# Commands\n\n")
	for _, g := range groups {
		sb.WriteString("## " + g.Title + "\n\n")
		sb.WriteString("| Command | Description |\n|---|---|\n")
		for _, c := range g.Commands {
			sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", c.Usage, c.Desc))
		}
		sb.WriteString("\n")
	}

	if len(tips) > 0 {
		sb.WriteString("## Tips\n\n")
		for _, t := range tips {
			sb.WriteString("- " + t + "\n")
		}
	}

	return f.RenderMarkdown(sb.String())
}

// FormatDetail renders a single reminder with all its fields.
func (f *Formatter) FormatDetail(r reminder.Reminder) string {
	var sb strings.Builder

	status := "pending"
	if r.Completed {
		status = "done"
	}

	sb.WriteString("## " + r.Title + "\n\n")
	if r.Description != "" {
		sb.WriteString(r.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", r.ID))
	if when := FormatWhen(r); when != "" {
		sb.WriteString(fmt.Sprintf("- **When:** %s\n", when))
	} else {
		sb.WriteString("- **When:** unscheduled\n")
	}
	sb.WriteString(fmt.Sprintf("- **Priority:** %s\n", r.Priority))
	sb.WriteString(fmt.Sprintf("- **Category:** %s\n", r.Category))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", status))
	if !r.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Created:** %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04")))
	}

	return f.RenderMarkdown(sb.String())
}
