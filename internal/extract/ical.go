package extract

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/notexe/rimix/internal/reminder"
)

// ICalCategory is used for imported events without CATEGORIES.
const ICalCategory = "Calendar"

// ParseICal converts the VEVENTs in an iCalendar stream into drafts. A
// recurring event becomes one draft at its next occurrence on or after now.
// Cancelled events and events entirely in the past are skipped. All-day
// events keep their date and carry no time.
func ParseICal(r io.Reader, loc *time.Location, now time.Time, logger *log.Logger) ([]reminder.Draft, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	now = now.In(loc)

	decoder := ical.NewDecoder(r)
	drafts := []reminder.Draft{}

	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}

			d, ok, err := eventDraft(comp, loc, now)
			if err != nil {
				logger.Printf("[import] skipping event: %v", err)
				continue
			}
			if !ok {
				continue
			}
			drafts = append(drafts, d)
		}
	}

	return drafts, nil
}

func eventDraft(comp *ical.Component, loc *time.Location, now time.Time) (reminder.Draft, bool, error) {
	if status := comp.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
		return reminder.Draft{}, false, nil
	}

	d := reminder.Draft{Category: ICalCategory}
	d.Title, _ = comp.Props.Text(ical.PropSummary)
	d.Description, _ = comp.Props.Text(ical.PropDescription)

	if cats := comp.Props.Get(ical.PropCategories); cats != nil {
		if first, _, _ := strings.Cut(cats.Value, ","); strings.TrimSpace(first) != "" {
			d.Category = strings.TrimSpace(first)
		}
	}
	if p := comp.Props.Get(ical.PropPriority); p != nil {
		d.Priority = icalPriority(p.Value)
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return reminder.Draft{}, false, fmt.Errorf("%q has no DTSTART", d.Title)
	}
	allDay := start.ValueType() == ical.ValueDate

	var at time.Time
	var err error
	if allDay {
		at, err = time.ParseInLocation("20060102", start.Value, loc)
	} else {
		at, err = start.DateTime(loc)
	}
	if err != nil {
		return reminder.Draft{}, false, fmt.Errorf("%q: %w", d.Title, err)
	}
	at = at.In(loc)

	set, err := comp.RecurrenceSet(loc)
	if err != nil {
		return reminder.Draft{}, false, fmt.Errorf("%q: %w", d.Title, err)
	}

	from := now
	if allDay {
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}

	if set != nil {
		next := set.After(from, true)
		if next.IsZero() {
			return reminder.Draft{}, false, nil
		}
		at = next.In(loc)
	} else if at.Before(from) {
		return reminder.Draft{}, false, nil
	}

	d.Date = at.Format(reminder.DateLayout)
	if !allDay {
		d.Time = at.Format(reminder.TimeLayout)
	}

	return d, true, nil
}

// icalPriority maps RFC 5545 PRIORITY (1 highest, 9 lowest, 0 undefined).
func icalPriority(v string) string {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return ""
	}
	switch {
	case n <= 4:
		return reminder.PriorityHigh
	case n == 5:
		return reminder.PriorityMedium
	default:
		return reminder.PriorityLow
	}
}
