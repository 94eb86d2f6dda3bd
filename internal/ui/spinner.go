package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows that a slow step (model extraction, a calendar import) is
// still running. After the first second it also shows the elapsed time.
type Spinner struct {
	out      io.Writer
	colored  bool
	interval time.Duration

	frameStyle lipgloss.Style
	textStyle  lipgloss.Style

	mu      sync.Mutex
	label   string
	started time.Time
	quit    chan struct{}
	exited  chan struct{}
}

// NewSpinner creates a spinner drawing to out (stdout when nil).
func NewSpinner(out io.Writer, colored bool) *Spinner {
	if out == nil {
		out = os.Stdout
	}
	return &Spinner{
		out:        out,
		colored:    colored,
		interval:   80 * time.Millisecond,
		frameStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		textStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

// Start shows label. Calling it while running only swaps the label.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = label
	if s.quit != nil {
		return
	}

	s.started = time.Now()
	s.quit = make(chan struct{})
	s.exited = make(chan struct{})
	go s.loop(s.quit, s.exited)
}

// Stop clears the spinner line. It is safe to call when not running.
func (s *Spinner) Stop() {
	s.mu.Lock()
	quit, exited := s.quit, s.exited
	s.quit, s.exited = nil, nil
	s.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-exited
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit != nil
}

func (s *Spinner) loop(quit <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-quit:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		text := s.label
		elapsed := time.Since(s.started)
		s.mu.Unlock()

		if elapsed >= time.Second {
			text = fmt.Sprintf("%s %ds", text, int(elapsed.Seconds()))
		}
		s.draw(spinnerFrames[frame], text)
	}
}

func (s *Spinner) draw(frame, text string) {
	if s.colored {
		frame = s.frameStyle.Render(frame)
		text = s.textStyle.Render(text)
	}
	fmt.Fprintf(s.out, "\r\033[K%s %s", frame, text)
}
