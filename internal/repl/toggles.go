package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/engine"
)

// handleSwitch shows or flips one of the channel toggles.
func (r *REPL) handleSwitch(ctx context.Context, name, args string) error {
	if args == "" {
		state := "off"
		if r.config().ToggleValues()[name] {
			state = "on"
		}
		r.displayInfo(fmt.Sprintf("%s is %s.", name, state))
		return nil
	}

	on, err := parseOnOff(args)
	if err != nil {
		return fmt.Errorf("usage: /%s on|off", name)
	}
	if err := r.setToggle(name, on); err != nil {
		return err
	}

	if name == "notify" && on {
		perm := r.app.RequestNotifications(ctx)
		if perm != engine.PermissionGranted {
			r.displayInfo(fmt.Sprintf("Desktop notifications are %s; fired reminders will only show here.", perm))
			return nil
		}
	}

	r.displaySystem(fmt.Sprintf("%s %s.", name, onOff(on)))
	return nil
}

// setToggle applies a toggle to the running app and persists it when a
// config file is in use.
func (r *REPL) setToggle(name string, on bool) error {
	key, ok := config.ToggleKey(name)
	if !ok {
		return fmt.Errorf("unknown toggle: %s", name)
	}

	next := *r.config()
	if err := next.ApplyToggle(key, on); err != nil {
		return err
	}
	if err := r.app.Apply(&next); err != nil {
		return err
	}

	if r.app.ConfigPath == "" {
		return nil
	}
	if err := config.SetToggle(r.app.ConfigPath, key, on); err != nil {
		r.app.Logger.Printf("[repl] Warning: failed to save %s: %v", key, err)
		r.displayInfo("Changed for this session only; the config file could not be written.")
	}
	return nil
}

func (r *REPL) handleAlarm(_ context.Context, args string) error {
	switch mode := strings.ToLower(args); mode {
	case "", "status":
		r.println(r.formatter.FormatAlarmState(r.app.Engine.AlarmState()))
		r.println("")
		return nil

	case "dismiss", "stop":
		if r.app.Engine.DismissAlarm() {
			r.displaySystem("Alarm dismissed.")
		} else {
			r.displayInfo("No alarm is sounding.")
		}
		return nil

	case "on", "off":
		on := mode == "on"
		if err := r.setToggle("alarm", on); err != nil {
			return err
		}
		r.displaySystem(fmt.Sprintf("alarm %s.", onOff(on)))
		return nil

	default:
		return fmt.Errorf("usage: /alarm [on|off|dismiss|status]")
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
