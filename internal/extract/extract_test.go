package extract

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notexe/rimix/internal/api"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestPlainExtractor(t *testing.T) {
	p := &PlainExtractor{Location: time.UTC, Now: fixedNow}

	tests := []struct {
		name  string
		input string
		want  reminder.Draft
	}{
		{
			name:  "relative day with meridiem",
			input: "Call mom tomorrow at 6pm #family !high\nbring cake",
			want: reminder.Draft{
				Title: "Call mom", Description: "bring cake",
				Date: "2026-10-16", Time: "18:00",
				Priority: "high", Category: "family",
			},
		},
		{
			name:  "explicit date and clock",
			input: "Dentist 2026-11-02 14:30",
			want:  reminder.Draft{Title: "Dentist", Date: "2026-11-02", Time: "14:30"},
		},
		{
			name:  "time alone means today",
			input: "Standup 9:05",
			want:  reminder.Draft{Title: "Standup", Date: "2026-10-15", Time: "09:05"},
		},
		{
			name:  "midnight",
			input: "Renew domain 12am",
			want:  reminder.Draft{Title: "Renew domain", Date: "2026-10-15", Time: "00:00"},
		},
		{
			name:  "leading blank lines",
			input: "\n\n  Water plants  \n",
			want:  reminder.Draft{Title: "Water plants"},
		},
		{
			name:  "empty",
			input: "   ",
			want:  reminder.Draft{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Extract(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlainExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Plain.Extract(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeProvider struct {
	content string
	err     error
	reqs    []api.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &api.Completion{Text: f.content, Usage: api.Usage{PromptTokens: 10, CompletionTokens: 4}}, nil
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func newTestLLM(p api.Provider) *LLMExtractor {
	e := NewLLMExtractor(p, config.ModelSettings{Name: "m", MaxTokens: 128, Temperature: 0.2}, quietLogger())
	e.Location = time.UTC
	e.Now = fixedNow
	return e
}

func TestLLMExtractor_ParsesFencedJSON(t *testing.T) {
	p := &fakeProvider{content: "```json\n" +
		`{"title":"Pay rent","description":"landlord","date":"2026-11-01","time":"25:99","priority":"URGENT","category":"Home"}` +
		"\n```"}
	e := newTestLLM(p)

	d, err := e.Extract(context.Background(), "pay rent on the first")
	require.NoError(t, err)

	assert.Equal(t, reminder.Draft{
		Title: "Pay rent", Description: "landlord",
		Date: "2026-11-01", Category: "Home",
	}, d)

	require.Len(t, p.reqs, 1)
	req := p.reqs[0]
	assert.True(t, req.JSON)
	assert.Equal(t, "m", req.Model)
	assert.Contains(t, req.System, "Today is 2026-10-15")
	assert.Equal(t, "pay rent on the first", req.Prompt)
}

func TestLLMExtractor_FallbackOnError(t *testing.T) {
	e := newTestLLM(&fakeProvider{err: errors.New("connection refused")})
	e.Fallback = &PlainExtractor{Location: time.UTC, Now: fixedNow}

	d, err := e.Extract(context.Background(), "Gym 18:00")
	require.NoError(t, err)
	assert.Equal(t, "Gym", d.Title)
	assert.Equal(t, "18:00", d.Time)
}

func TestLLMExtractor_ErrorsWithoutFallback(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
	}{
		{name: "provider error", p: &fakeProvider{err: errors.New("boom")}},
		{name: "not json", p: &fakeProvider{content: "sure, here you go"}},
		{name: "no title", p: &fakeProvider{content: `{"date":"2026-10-20"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLLM(tt.p).Extract(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

const testCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:one\r\n" +
	"SUMMARY:Team sync\r\n" +
	"DESCRIPTION:Room 4\r\n" +
	"DTSTART:20261020T090000Z\r\n" +
	"PRIORITY:1\r\n" +
	"CATEGORIES:Work,Meetings\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:two\r\n" +
	"SUMMARY:Old news\r\n" +
	"DTSTART:20250101T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:three\r\n" +
	"SUMMARY:Cancelled lunch\r\n" +
	"DTSTART:20261021T120000Z\r\n" +
	"STATUS:CANCELLED\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:four\r\n" +
	"SUMMARY:Stretch\r\n" +
	"DTSTART:20261001T080000Z\r\n" +
	"RRULE:FREQ=DAILY\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:five\r\n" +
	"SUMMARY:Halloween\r\n" +
	"DTSTART;VALUE=DATE:20261031\r\n" +
	"PRIORITY:9\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICal(t *testing.T) {
	drafts, err := ParseICal(strings.NewReader(testCalendar), time.UTC, testNow, quietLogger())
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, reminder.Draft{
		Title: "Team sync", Description: "Room 4",
		Date: "2026-10-20", Time: "09:00",
		Priority: "high", Category: "Work",
	}, drafts[0])

	assert.Equal(t, "Stretch", drafts[1].Title)
	assert.Equal(t, "2026-10-16", drafts[1].Date)
	assert.Equal(t, "08:00", drafts[1].Time)
	assert.Equal(t, ICalCategory, drafts[1].Category)

	assert.Equal(t, "Halloween", drafts[2].Title)
	assert.Equal(t, "2026-10-31", drafts[2].Date)
	assert.Empty(t, drafts[2].Time)
	assert.Equal(t, "low", drafts[2].Priority)
}

func TestParseICal_Malformed(t *testing.T) {
	_, err := ParseICal(strings.NewReader("BEGIN:VEVENT\r\nSUMMARY:x\r\nEND:VEVENT\r\n"), time.UTC, testNow, quietLogger())
	assert.Error(t, err)
}

func TestImporter(t *testing.T) {
	dir := t.TempDir()
	im := &Importer{Location: time.UTC, Now: fixedNow, Logger: quietLogger()}

	ics := filepath.Join(dir, "cal.ics")
	require.NoError(t, os.WriteFile(ics, []byte(testCalendar), 0o644))
	drafts, err := im.ImportFile(context.Background(), ics)
	require.NoError(t, err)
	assert.Len(t, drafts, 3)

	note := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(note, []byte("Submit report 2026-10-30 17:00 #work\nQ3 numbers"), 0o644))
	drafts, err = im.ImportFile(context.Background(), note)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Submit report", drafts[0].Title)
	assert.Equal(t, "Q3 numbers", drafts[0].Description)
	assert.Equal(t, "work", drafts[0].Category)

	drafts, err = im.ImportBody(context.Background(), testCalendar)
	require.NoError(t, err)
	assert.Len(t, drafts, 3)

	_, err = im.ImportBody(context.Background(), "  ")
	assert.Error(t, err)

	_, err = im.ImportFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	ex, closeFn, err := New(cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &PlainExtractor{}, ex)
	assert.NoError(t, closeFn())

	cfg.Extract.Provider = config.ProviderOllama
	ex, closeFn, err = New(cfg, quietLogger())
	require.NoError(t, err)
	llm, ok := ex.(*LLMExtractor)
	require.True(t, ok)
	assert.NotNil(t, llm.Fallback)
	assert.NoError(t, closeFn())
}
