package platform

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// BellVibrator approximates a haptic pulse with the terminal bell: one BEL
// per "on" segment of the pattern.
type BellVibrator struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
}

// NewBellVibrator rings f when f is a terminal.
func NewBellVibrator(f *os.File) *BellVibrator {
	return &BellVibrator{out: f, terminal: term.IsTerminal(int(f.Fd()))}
}

// CanVibrate reports whether the output is a terminal.
func (b *BellVibrator) CanVibrate() bool {
	return b.terminal
}

// Vibrate rings the bell for each even index of pattern, sleeping through
// every segment.
func (b *BellVibrator) Vibrate(ctx context.Context, pattern []time.Duration) error {
	for i, d := range pattern {
		if i%2 == 0 {
			b.mu.Lock()
			_, err := io.WriteString(b.out, "\a")
			b.mu.Unlock()
			if err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return nil
}
