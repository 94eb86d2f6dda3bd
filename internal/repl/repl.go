package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/notexe/rimix/internal/app"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/ui"
)

type REPL struct {
	app       *app.App
	formatter *ui.Formatter
	spinner   *ui.Spinner
	colored   bool

	rlMu sync.Mutex
	rl   *readline.Instance

	// Used when no readline instance is attached.
	in  io.Reader
	out io.Writer

	timers *timers
	now    func() time.Time
}

func NewREPL(a *app.App) (*REPL, error) {
	r := newREPL(a, os.Stdin, os.Stdout)

	rl, err := setupReadline(r.formatter.FormatPrompt())
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}
	r.rl = rl

	return r, nil
}

func newREPL(a *app.App, in io.Reader, out io.Writer) *REPL {
	colored := a.Config().UI.ColoredOutput
	r := &REPL{
		app:       a,
		formatter: ui.NewFormatter(colored),
		colored:   colored,
		in:        in,
		out:       out,
		timers:    newTimers(),
		now:       time.Now,
	}
	r.spinner = ui.NewSpinner(promptWriter{r}, colored)
	return r
}

func (r *REPL) Start(ctx context.Context) error {
	defer r.closeReadline()
	defer r.timers.stopAll()

	stopToasts := r.watchFired()
	defer stopToasts()

	r.displayWelcome(ctx)

	for {
		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				r.println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if input == "" {
			continue
		}

		if quit := r.handleInput(ctx, input); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Stop interrupts a blocked prompt.
func (r *REPL) Stop() {
	r.closeReadline()
}

// handleInput runs one line of input and reports whether the REPL should exit.
func (r *REPL) handleInput(ctx context.Context, input string) bool {
	isCommand, command, args := parseCommand(input)
	if !isCommand {
		if err := r.addFromText(ctx, input); err != nil {
			r.displayError(err)
		}
		return false
	}

	if command == "/quit" || command == "/exit" || command == "/q" {
		r.println("\nGoodbye!")
		return true
	}

	if err := r.handleCommand(ctx, command, args); err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			r.displayInfo("Cancelled.")
		} else {
			r.displayError(err)
		}
	}
	return false
}

func (r *REPL) handleCommand(ctx context.Context, command, args string) error {
	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/list", "/ls":
		return r.handleList(ctx, args)

	case "/search", "/find":
		return r.handleSearch(ctx, args)

	case "/add", "/a":
		if args == "" {
			return fmt.Errorf("usage: /add <reminder text>")
		}
		return r.addFromText(ctx, args)

	case "/show":
		return r.handleShow(ctx, args)

	case "/done", "/d":
		return r.handleDone(ctx, args)

	case "/undo":
		return r.handleUndo(ctx, args)

	case "/toggle", "/t":
		return r.handleToggle(ctx, args)

	case "/delete", "/rm":
		return r.handleDelete(ctx, args)

	case "/edit", "/e":
		return r.handleEdit(ctx, args)

	case "/alarm":
		return r.handleAlarm(ctx, args)

	case "/notify", "/chime", "/vibrate", "/speech":
		return r.handleSwitch(ctx, strings.TrimPrefix(command, "/"), args)

	case "/settings":
		r.displaySettings()
		return nil

	case "/import":
		return r.handleImport(ctx, args)

	case "/timer":
		return r.handleTimer(args)

	case "/check":
		n := r.app.Engine.Check(ctx)
		r.displayInfo(fmt.Sprintf("Checked now: %d reminder(s) fired.", n))
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type /help for available commands)", command)
	}
}

// watchFired prints a toast for every fired reminder until the returned
// function is called.
func (r *REPL) watchFired() func() {
	fired, cancel := r.app.Engine.Subscribe(16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for f := range fired {
			toast := r.formatter.FormatToast(f, r.app.Engine.AlarmState())
			if r.config().UI.ShowTimestamps {
				toast = "\n" + r.formatter.FormatStatus("fired at "+r.now().Format("15:04:05")) + toast
			}
			r.print(toast)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (r *REPL) config() *config.Config {
	return r.app.Config()
}
