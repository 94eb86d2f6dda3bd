package repl

import "github.com/notexe/rimix/internal/ui"

var commandGroups = []ui.CommandGroup{
	{
		Title: "Reminders",
		Commands: []ui.Command{
			{Usage: "<text>", Desc: "Add a reminder from free text, e.g. `call mom tomorrow 6pm !high #family`"},
			{Usage: "/add <text>", Desc: "Same as typing the text"},
			{Usage: "/list [all/done]", Desc: "List pending, all or completed reminders"},
			{Usage: "/search <text>", Desc: "Search titles and descriptions"},
			{Usage: "/show [id]", Desc: "Show one reminder"},
			{Usage: "/done [id]", Desc: "Mark done; without an id, pick from a list"},
			{Usage: "/undo <id>", Desc: "Mark pending again"},
			{Usage: "/toggle [id]", Desc: "Flip between done and pending"},
			{Usage: "/edit <id> key=value", Desc: "Change title, desc, date, time, priority or category"},
			{Usage: "/delete [id]", Desc: "Delete reminders"},
			{Usage: "/import <file>", Desc: "Import an .ics calendar or a text note"},
		},
	},
	{
		Title: "Alerts",
		Commands: []ui.Command{
			{Usage: "/alarm [on/off/dismiss]", Desc: "Arm, disarm or silence the alarm"},
			{Usage: "/notify on/off", Desc: "Desktop notifications"},
			{Usage: "/chime on/off", Desc: "Two-tone chime"},
			{Usage: "/vibrate on/off", Desc: "Terminal bell"},
			{Usage: "/speech on/off", Desc: "Read reminders aloud"},
			{Usage: "/timer <dur> [label]", Desc: "Start a countdown (`/timer list`, `/timer cancel <n>`)"},
			{Usage: "/check", Desc: "Check for due reminders now"},
			{Usage: "/settings", Desc: "Show channel and engine settings"},
		},
	},
	{
		Title: "Session",
		Commands: []ui.Command{
			{Usage: "/help", Desc: "Show this help"},
			{Usage: "/quit", Desc: "Exit"},
		},
	},
}

var helpTips = []string{
	"IDs can be shortened to their first characters, as shown in `/list`.",
	"Quote values with spaces: `/edit 1a2b title=\"Call mom\"`.",
	"An empty value clears a date or time: `/edit 1a2b time=`.",
	"Toggles are saved to the config file when one is in use.",
	"Ctrl+D exits.",
}

func (r *REPL) displayHelp() {
	r.print(r.formatter.RenderMarkdown(r.formatter.FormatHelp(commandGroups, helpTips)))
	r.println("")
}
