package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/notexe/rimix/internal/reminder"
)

var (
	dateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	meridiemRe = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9])(?::([0-5]\d))?\s*(am|pm)\b`)
	dayRe      = regexp.MustCompile(`(?i)\b(today|tonight|tomorrow)\b`)
	priorityRe = regexp.MustCompile(`(?i)(?:^|\s)!(low|medium|high)\b`)
	categoryRe = regexp.MustCompile(`(?:^|\s)#([\p{L}\d_-]+)`)
	danglingRe = regexp.MustCompile(`(?i)\s+\b(at|on|by)\s*$`)
	spacesRe   = regexp.MustCompile(`\s{2,}`)
)

// PlainExtractor parses drafts without a model. The first non-empty line is
// the title and the remaining lines the description. Dates (YYYY-MM-DD,
// today, tomorrow), times (HH:MM, 9am, 7:30 pm), !priority and #category
// tokens are picked out of the text and removed from the title.
type PlainExtractor struct {
	Location *time.Location
	Now      func() time.Time
}

// Plain is a PlainExtractor in local time.
var Plain = &PlainExtractor{}

func (p *PlainExtractor) Extract(ctx context.Context, input string) (reminder.Draft, error) {
	if err := ctx.Err(); err != nil {
		return reminder.Draft{}, err
	}

	title, description := splitLines(input)
	today := now(p.Location, p.Now)

	var d reminder.Draft
	all := title + "\n" + description

	if m := dateRe.FindStringSubmatch(all); m != nil {
		d.Date = m[1]
	} else if m := dayRe.FindStringSubmatch(all); m != nil {
		day := today
		if strings.EqualFold(m[1], "tomorrow") {
			day = day.AddDate(0, 0, 1)
		}
		d.Date = day.Format(reminder.DateLayout)
	}

	if m := meridiemRe.FindStringSubmatch(all); m != nil {
		d.Time = meridiemClock(m[1], m[2], m[3])
	} else if m := clockRe.FindStringSubmatch(all); m != nil {
		d.Time = twoDigits(m[1]) + ":" + m[2]
	}

	if d.Time != "" && d.Date == "" {
		d.Date = today.Format(reminder.DateLayout)
	}

	if m := priorityRe.FindStringSubmatch(all); m != nil {
		d.Priority = strings.ToLower(m[1])
	}
	if m := categoryRe.FindStringSubmatch(all); m != nil {
		d.Category = m[1]
	}

	d.Title = cleanTitle(title)
	d.Description = strings.TrimSpace(description)
	return d, nil
}

func splitLines(input string) (string, string) {
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.TrimSpace(line), strings.Join(lines[i+1:], "\n")
	}
	return "", ""
}

func cleanTitle(title string) string {
	for _, re := range []*regexp.Regexp{dateRe, meridiemRe, clockRe, dayRe, priorityRe, categoryRe} {
		title = re.ReplaceAllString(title, " ")
	}
	title = spacesRe.ReplaceAllString(strings.TrimSpace(title), " ")
	for {
		trimmed := danglingRe.ReplaceAllString(title, "")
		if trimmed == title {
			break
		}
		title = trimmed
	}
	return strings.TrimSpace(title)
}

func meridiemClock(hour, minute, suffix string) string {
	h, _ := strconv.Atoi(hour)
	h %= 12
	if strings.EqualFold(suffix, "pm") {
		h += 12
	}
	if minute == "" {
		minute = "00"
	}
	return twoDigits(strconv.Itoa(h)) + ":" + minute
}

func twoDigits(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
