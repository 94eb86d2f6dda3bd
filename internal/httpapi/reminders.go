package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/notexe/rimix/internal/reminder"
)

// MaxBodySize bounds request bodies, including imported documents.
const MaxBodySize = 1 << 20

type ReminderHandler struct {
	Store    Store
	Importer Importer
	Logger   *log.Logger
}

type createReminderReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := reminder.Query{
		Text:  params.Get("q"),
		Page:  intParam(params.Get("page"), 1),
		Limit: intParam(params.Get("limit"), reminder.DefaultLimit),
	}
	if q.Limit < 1 {
		q.Limit = 1
	}

	switch strings.TrimSpace(strings.ToLower(params.Get("completed"))) {
	case "true":
		done := true
		q.Completed = &done
	case "false":
		done := false
		q.Completed = &done
	}

	page, err := h.Store.Search(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}

	created, err := h.Store.Add(r.Context(), reminder.Reminder{
		Title:       req.Title,
		Description: req.Description,
		Date:        strings.TrimSpace(req.Date),
		Time:        strings.TrimSpace(req.Time),
		Category:    strings.TrimSpace(req.Category),
		Priority:    strings.ToLower(strings.TrimSpace(req.Priority)),
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reminderID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Update serves PUT and PATCH. Only keys present in the body change; a null
// or empty date or time clears it.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := reminderID(w, r)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	fields, err := updateFields(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.Store.Update(r.Context(), id, fields)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := reminderID(w, r)
	if !ok {
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type importReq struct {
	Text string `json:"text"`
}

// Import accepts either {"text": "..."} or a raw text or iCalendar body and
// stores one reminder per extracted draft.
func (h *ReminderHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		writeError(w, http.StatusNotImplemented, "Import is not configured")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Body too large")
		return
	}

	body := string(raw)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req importReq
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		body = req.Text
	}

	if strings.TrimSpace(body) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Nothing to import")
		return
	}

	drafts, err := h.Importer.ImportBody(r.Context(), body)
	if err != nil {
		h.Logger.Printf("[http] import failed: %v", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	items := make([]reminder.Reminder, 0, len(drafts))
	for _, d := range drafts {
		created, err := h.Store.Add(r.Context(), d.Reminder())
		if err != nil {
			h.fail(w, err)
			return
		}
		items = append(items, *created)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"items": items, "count": len(items)})
}

func (h *ReminderHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reminder.ErrNotFound):
		writeError(w, http.StatusNotFound, "Reminder not found")
	case errors.Is(err, reminder.ErrTitleRequired):
		writeError(w, http.StatusUnprocessableEntity, "Title is required")
	case errors.Is(err, reminder.ErrInvalidPriority),
		errors.Is(err, reminder.ErrInvalidDate),
		errors.Is(err, reminder.ErrInvalidTime):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.Logger.Printf("[http] %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func reminderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reminder ID format")
		return "", false
	}
	return id, true
}

func intParam(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func updateFields(body map[string]json.RawMessage) (reminder.UpdateFields, error) {
	var f reminder.UpdateFields

	strs := map[string]**string{
		"title":       &f.Title,
		"description": &f.Description,
		"category":    &f.Category,
		"priority":    &f.Priority,
	}
	for key, dst := range strs {
		raw, ok := body[key]
		if !ok || isNull(raw) {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return f, fmt.Errorf("invalid %s", key)
		}
		*dst = &v
	}

	clearable := map[string]**string{
		"date": &f.Date,
		"time": &f.Time,
	}
	for key, dst := range clearable {
		raw, ok := body[key]
		if !ok {
			continue
		}
		v := ""
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &v); err != nil {
				return f, fmt.Errorf("invalid %s", key)
			}
		}
		*dst = &v
	}

	if raw, ok := body["completed"]; ok && !isNull(raw) {
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return f, fmt.Errorf("invalid completed")
		}
		f.Completed = &v
	}

	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
