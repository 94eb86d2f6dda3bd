package repl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/reminder"
	"github.com/notexe/rimix/internal/ui"
)

func (r *REPL) addFromText(ctx context.Context, text string) error {
	if r.config().Extract.Provider != "" && r.config().Extract.Provider != config.ProviderPlain {
		r.spinner.Start("Reading reminder...")
	}
	draft, err := r.app.Extractor.Extract(ctx, text)
	r.spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to read reminder: %w", err)
	}

	added, err := r.app.Store.Add(ctx, draft.Reminder())
	if err != nil {
		return err
	}

	r.displayReminder("Added", *added)
	if _, ok := added.DueAt(r.app.Engine.Settings().Location); !ok {
		r.println(r.formatter.FormatStatus("  Needs a date and time to fire. Use /edit to schedule it."))
	}
	r.println("")
	return nil
}

func (r *REPL) handleList(ctx context.Context, args string) error {
	items, err := r.app.Store.List(ctx)
	if err != nil {
		return err
	}

	title := "Pending"
	keep := func(rem reminder.Reminder) bool { return !rem.Completed }
	switch strings.ToLower(args) {
	case "":
	case "all":
		title = "All reminders"
		keep = func(reminder.Reminder) bool { return true }
	case "done", "completed":
		title = "Completed"
		keep = func(rem reminder.Reminder) bool { return rem.Completed }
	default:
		return fmt.Errorf("usage: /list [all|done]")
	}

	var shown []reminder.Reminder
	for _, it := range items {
		if keep(it) {
			shown = append(shown, it)
		}
	}

	r.print(r.formatter.FormatReminderList(title, shown, len(shown)))
	r.println("")
	return nil
}

func (r *REPL) handleSearch(ctx context.Context, args string) error {
	if args == "" {
		return fmt.Errorf("usage: /search <text>")
	}

	page, err := r.app.Store.Search(ctx, reminder.Query{Text: args})
	if err != nil {
		return err
	}

	r.print(r.formatter.FormatReminderList(fmt.Sprintf("Matching %q", args), page.Items, page.Total))
	r.println("")
	return nil
}

func (r *REPL) handleShow(ctx context.Context, args string) error {
	id, err := r.resolveOrPick(ctx, args, "Show which reminder?", nil)
	if err != nil {
		return err
	}

	rem, err := r.app.Store.Get(ctx, id)
	if err != nil {
		return err
	}

	r.print(r.formatter.RenderMarkdown(r.formatter.FormatDetail(*rem)))
	r.println("")
	return nil
}

func (r *REPL) handleDone(ctx context.Context, args string) error {
	if args != "" {
		id, err := r.app.Store.Resolve(ctx, args)
		if err != nil {
			return err
		}
		return r.complete(ctx, id)
	}

	ids, err := r.pickReminders(ctx, "Mark which reminders done?", true, isPending)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.complete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *REPL) complete(ctx context.Context, id string) error {
	rem, err := r.app.Store.Complete(ctx, id)
	if err != nil {
		return err
	}
	r.displayReminder("Done", *rem)
	return nil
}

func (r *REPL) handleUndo(ctx context.Context, args string) error {
	if args == "" {
		return fmt.Errorf("usage: /undo <id>")
	}
	id, err := r.app.Store.Resolve(ctx, args)
	if err != nil {
		return err
	}

	pending := false
	rem, err := r.app.Store.Update(ctx, id, reminder.UpdateFields{Completed: &pending})
	if err != nil {
		return err
	}
	r.displayReminder("Reopened", *rem)
	return nil
}

func (r *REPL) handleToggle(ctx context.Context, args string) error {
	id, err := r.resolveOrPick(ctx, args, "Toggle which reminder?", nil)
	if err != nil {
		return err
	}

	rem, err := r.app.Store.Toggle(ctx, id)
	if err != nil {
		return err
	}
	verb := "Reopened"
	if rem.Completed {
		verb = "Done"
	}
	r.displayReminder(verb, *rem)
	return nil
}

func (r *REPL) handleDelete(ctx context.Context, args string) error {
	var ids []string
	if args != "" {
		id, err := r.app.Store.Resolve(ctx, args)
		if err != nil {
			return err
		}
		ids = []string{id}
	} else {
		picked, err := r.pickReminders(ctx, "Delete which reminders?", true, nil)
		if err != nil {
			return err
		}
		ids = picked
	}

	for _, id := range ids {
		rem, err := r.app.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := r.app.Store.Delete(ctx, id); err != nil {
			return err
		}
		r.displaySuccess("Deleted " + rem.Title)
	}
	return nil
}

func (r *REPL) handleEdit(ctx context.Context, args string) error {
	fields, err := splitArgs(args)
	if err != nil {
		return err
	}
	if len(fields) < 2 {
		return fmt.Errorf("usage: /edit <id> key=value ... (title, desc, date, time, priority, category)")
	}

	id, err := r.app.Store.Resolve(ctx, fields[0])
	if err != nil {
		return err
	}

	update, err := parseUpdate(fields[1:])
	if err != nil {
		return err
	}

	rem, err := r.app.Store.Update(ctx, id, update)
	if err != nil {
		return err
	}
	r.displayReminder("Updated", *rem)
	return nil
}

// parseUpdate turns key=value pairs into a partial update. An empty date or
// time clears it.
func parseUpdate(pairs []string) (reminder.UpdateFields, error) {
	var u reminder.UpdateFields
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return u, fmt.Errorf("expected key=value, got %q", pair)
		}

		v := value
		switch strings.ToLower(key) {
		case "title":
			u.Title = &v
		case "desc", "description":
			u.Description = &v
		case "date":
			u.Date = &v
		case "time":
			u.Time = &v
		case "priority", "prio":
			u.Priority = &v
		case "category", "cat":
			u.Category = &v
		default:
			return u, fmt.Errorf("unknown field: %s", key)
		}
	}
	return u, nil
}

func (r *REPL) handleImport(ctx context.Context, args string) error {
	if args == "" {
		return fmt.Errorf("usage: /import <file.ics|file.txt>")
	}
	path := config.ExpandPath(strings.Trim(args, `"'`))

	r.spinner.Start("Importing...")
	drafts, err := r.app.Importer.ImportFile(ctx, path)
	r.spinner.Stop()
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		r.displayInfo("Nothing to import.")
		return nil
	}

	for _, d := range drafts {
		added, err := r.app.Store.Add(ctx, d.Reminder())
		if err != nil {
			return err
		}
		r.displayReminder("Imported", *added)
	}
	r.println("")
	return nil
}

func isPending(rem reminder.Reminder) bool {
	return !rem.Completed
}

// resolveOrPick resolves an ID prefix, or shows a picker when none is given.
func (r *REPL) resolveOrPick(ctx context.Context, args, question string, keep func(reminder.Reminder) bool) (string, error) {
	if args != "" {
		return r.app.Store.Resolve(ctx, args)
	}
	ids, err := r.pickReminders(ctx, question, false, keep)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (r *REPL) pickReminders(ctx context.Context, question string, multi bool, keep func(reminder.Reminder) bool) ([]string, error) {
	items, err := r.app.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	var options []ui.PickerOption
	for _, it := range items {
		if keep != nil && !keep(it) {
			continue
		}
		label := it.Title
		if when := ui.FormatWhen(it); when != "" {
			label += "  (" + when + ")"
		}
		options = append(options, ui.PickerOption{Value: it.ID, Label: label})
	}
	if len(options) == 0 {
		return nil, errors.New("no reminders to choose from")
	}

	return r.pick(question, options, multi)
}
