package repl

import (
	"context"
	"fmt"
	"io"

	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/reminder"
)

// promptWriter writes above the readline prompt when one is attached, so
// toasts from the engine do not tear the line being typed.
type promptWriter struct {
	r *REPL
}

func (w promptWriter) Write(p []byte) (int, error) {
	return w.r.writer().Write(p)
}

func (r *REPL) writer() io.Writer {
	r.rlMu.Lock()
	defer r.rlMu.Unlock()
	if r.rl != nil {
		return r.rl.Stdout()
	}
	return r.out
}

func (r *REPL) print(s string) {
	fmt.Fprint(r.writer(), s)
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.writer(), s)
}

func (r *REPL) displayError(err error) {
	r.spinner.Stop()
	r.println(r.formatter.FormatError(err))
	r.println("")
}

func (r *REPL) displayInfo(msg string) {
	r.println(r.formatter.FormatInfo(msg))
	r.println("")
}

func (r *REPL) displaySystem(msg string) {
	r.println(r.formatter.FormatSystem(msg))
	r.println("")
}

func (r *REPL) displaySuccess(msg string) {
	r.println(r.formatter.FormatSuccess(msg))
}

func (r *REPL) displayReminder(verb string, rem reminder.Reminder) {
	r.displaySuccess(verb + " " + r.formatter.FormatReminder(rem))
}

func (r *REPL) displayWelcome(ctx context.Context) {
	pending := 0
	if items, err := r.app.Store.List(ctx); err == nil {
		for _, it := range items {
			if !it.Completed {
				pending++
			}
		}
	}
	r.print(r.formatter.FormatWelcome(r.extractorName(), pending))
}

func (r *REPL) extractorName() string {
	cfg := r.config()
	if cfg.Extract.Provider == "" || cfg.Extract.Provider == config.ProviderPlain {
		return config.ProviderPlain
	}
	if cfg.Extract.Model.Name != "" {
		return cfg.Extract.Provider + " (" + cfg.Extract.Model.Name + ")"
	}
	return cfg.Extract.Provider
}

func (r *REPL) displaySettings() {
	cfg := r.config()
	s := r.app.Engine.Settings()

	r.println(r.formatter.FormatSystem("Channels"))
	r.println(r.formatter.FormatToggles(cfg.ToggleValues()))
	r.println("")

	r.println(r.formatter.FormatSystem("Engine"))
	r.println(fmt.Sprintf("  %-10s %s", "tick", s.TickInterval))
	r.println(fmt.Sprintf("  %-10s %s", "window", s.DueWindow))
	r.println(fmt.Sprintf("  %-10s %s", "cooldown", s.FireCooldown))
	r.println(fmt.Sprintf("  %-10s %s", "timeout", s.ChannelTimeout))
	if s.Location != nil {
		r.println(fmt.Sprintf("  %-10s %s", "timezone", s.Location))
	}
	r.println("")

	r.println(r.formatter.FormatSystem("Other"))
	r.println(fmt.Sprintf("  %-10s %s", "extractor", r.extractorName()))
	r.println(fmt.Sprintf("  %-10s %s", "store", cfg.Store.Path))
	r.println(r.formatter.FormatAlarmState(r.app.Engine.AlarmState()))
	r.println("")
}
