package reminder

import (
	"errors"
	"strings"
	"time"
)

// Priority levels for reminders.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Defaults applied when a draft or request omits a field.
const (
	DefaultTitle    = "New Reminder"
	DefaultCategory = "Personal"
)

// Layouts for the Date and Time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var timeLayouts = []string{TimeLayout, "15:04:05"}

var (
	ErrNotFound        = errors.New("reminder not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTime     = errors.New("time must be formatted as HH:MM")
)

// Reminder represents a scheduled reminder item.
type Reminder struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date,omitempty"`
	Time        string    `json:"time,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DueAt combines Date and Time in loc. The second result is false when either
// field is missing or does not parse; such reminders can never become due.
func (r Reminder) DueAt(loc *time.Location) (time.Time, bool) {
	if r.Date == "" || r.Time == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation(DateLayout, r.Date, loc)
	if err != nil {
		return time.Time{}, false
	}

	clock, ok := parseClock(r.Time)
	if !ok {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, loc), true
}

// Validate checks the fields the store refuses to persist.
func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if !ValidPriority(r.Priority) {
		return ErrInvalidPriority
	}
	if r.Date != "" {
		if _, err := time.Parse(DateLayout, r.Date); err != nil {
			return ErrInvalidDate
		}
	}
	if r.Time != "" {
		if _, ok := parseClock(r.Time); !ok {
			return ErrInvalidTime
		}
	}
	return nil
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func parseClock(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UpdateFields holds optional fields for a partial update. A non-nil pointer
// to an empty Date or Time clears that field.
type UpdateFields struct {
	Title       *string
	Description *string
	Date        *string
	Time        *string
	Priority    *string
	Category    *string
	Completed   *bool
}

// Query filters and paginates a listing.
type Query struct {
	Text      string
	Completed *bool
	Page      int
	Limit     int
}

// Page is one page of a listing.
type Page struct {
	Items []Reminder `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Normalize clamps Page and Limit the way the listing endpoint does.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Text = strings.TrimSpace(q.Text)
	return q
}
