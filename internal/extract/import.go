package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notexe/rimix/internal/reminder"
)

// MaxImportSize caps how much of a text file is handed to an extractor.
const MaxImportSize = 64 << 10

// Importer reads reminder drafts from files.
type Importer struct {
	Extractor Extractor
	Location  *time.Location
	Now       func() time.Time
	Logger    *log.Logger
}

// ImportFile reads drafts from path. .ics and .ical files are parsed as
// iCalendar; anything else is read as text and sent through the extractor
// as a single reminder.
func (im *Importer) ImportFile(ctx context.Context, path string) ([]reminder.Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ics", ".ical":
		return ParseICal(f, im.Location, now(im.Location, im.Now), im.Logger)
	}

	body, err := io.ReadAll(io.LimitReader(f, MaxImportSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return im.ImportText(ctx, string(body))
}

// ImportText extracts a single draft from text.
func (im *Importer) ImportText(ctx context.Context, text string) ([]reminder.Draft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to import")
	}

	ex := im.Extractor
	if ex == nil {
		ex = &PlainExtractor{Location: im.Location, Now: im.Now}
	}

	d, err := ex.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return []reminder.Draft{d}, nil
}

// IsCalendar reports whether body looks like an iCalendar document.
func IsCalendar(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "BEGIN:VCALENDAR")
}

// ImportBody imports an uploaded document, detecting iCalendar by content.
func (im *Importer) ImportBody(ctx context.Context, body string) ([]reminder.Draft, error) {
	if IsCalendar(body) {
		return ParseICal(strings.NewReader(body), im.Location, now(im.Location, im.Now), im.Logger)
	}
	return im.ImportText(ctx, body)
}
