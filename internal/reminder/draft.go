package reminder

import "strings"

// Draft is a best-effort reminder produced from unstructured input. Any field
// may be empty; Reminder fills the gaps.
type Draft struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Reminder converts the draft into a reminder ready for the store. Fields that
// are missing or do not validate fall back to defaults (or are dropped, for
// date and time) so an extractor is never required to fully populate a reminder.
func (d Draft) Reminder() Reminder {
	r := Reminder{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Date:        strings.TrimSpace(d.Date),
		Time:        strings.TrimSpace(d.Time),
		Priority:    strings.ToLower(strings.TrimSpace(d.Priority)),
		Category:    strings.TrimSpace(d.Category),
	}

	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if !ValidPriority(r.Priority) {
		r.Priority = PriorityMedium
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}

	probe := Reminder{Title: r.Title, Priority: r.Priority, Date: r.Date}
	if probe.Validate() != nil {
		r.Date = ""
	}
	probe = Reminder{Title: r.Title, Priority: r.Priority, Time: r.Time}
	if probe.Validate() != nil {
		r.Time = ""
	}

	return r
}
