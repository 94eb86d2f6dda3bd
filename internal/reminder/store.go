package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ChangeKind describes what happened to a reminder.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeCompleted
	ChangeReopened
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeCompleted:
		return "completed"
	case ChangeReopened:
		return "reopened"
	case ChangeDeleted:
		return "deleted"
	}
	return "unknown"
}

// Change is delivered to OnChange listeners after a write commits.
type Change struct {
	Kind     ChangeKind
	Reminder Reminder
}

// Store provides SQLite-backed storage for reminders.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	mu        sync.RWMutex
	listeners []func(Change)
}

// NewStore opens (or creates) the SQLite database at dbPath and
// ensures the reminders table exists.
func NewStore(dbPath string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTable(db); err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Store{db: db, logger: logger}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			id          TEXT    PRIMARY KEY,
			title       TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			date        TEXT    NOT NULL DEFAULT '',
			time        TEXT    NOT NULL DEFAULT '',
			completed   INTEGER NOT NULL DEFAULT 0,
			priority    TEXT    NOT NULL DEFAULT 'medium',
			category    TEXT    NOT NULL DEFAULT 'Personal',
			created_at  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnChange registers fn to be called after every committed write.
// Listeners run synchronously on the writer's goroutine and must not block.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) emit(kind ChangeKind, r Reminder) {
	s.mu.RLock()
	listeners := make([]func(Change), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		s.notify(fn, Change{Kind: kind, Reminder: r})
	}
}

func (s *Store) notify(fn func(Change), c Change) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("[store] change listener panic on %s %s: %v", c.Kind, c.Reminder.ID, rec)
		}
	}()
	fn(c)
}

// Add validates r, assigns an ID and inserts it.
func (s *Store) Add(ctx context.Context, r Reminder) (*Reminder, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, title, description, date, time, completed, priority, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Title, r.Description, r.Date, r.Time, r.Completed,
		r.Priority, r.Category,
		r.CreatedAt.Format(timestampLayout), r.UpdatedAt.Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	s.emit(ChangeCreated, r)
	return &r, nil
}

// timestampLayout is fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, title, description, date, time, completed, priority, category, created_at, updated_at FROM reminders`

// List returns every reminder ordered by due date and time; undated ones last.
func (s *Store) List(ctx context.Context) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY date = '', date ASC, time ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// Search returns one page of reminders matching q, newest first.
func (s *Store) Search(ctx context.Context, q Query) (*Page, error) {
	q = q.Normalize()

	where := []string{}
	args := []interface{}{}

	if q.Text != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Text)) + "%"
		where = append(where, `(lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *q.Completed)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reminders"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reminders: %w", err)
	}

	pageArgs := append(append([]interface{}{}, args...), q.Limit, (q.Page-1)*q.Limit)
	rows, err := s.db.QueryContext(ctx, selectColumns+clause+`
		ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?
	`, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search reminders: %w", err)
	}
	defer rows.Close()

	items, err := scanReminders(rows)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Reminder{}
	}

	return &Page{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Get returns a single reminder by ID.
func (s *Store) Get(ctx context.Context, id string) (*Reminder, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	r, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return r, nil
}

// Resolve expands an ID prefix (as typed in the REPL) to a full ID.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("reminder id is required")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM reminders WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(prefix)+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve reminder id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan reminder id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("reminder %s: %w", prefix, ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("reminder id %q is ambiguous", prefix)
	}
}

// Complete marks a reminder as completed.
func (s *Store) Complete(ctx context.Context, id string) (*Reminder, error) {
	done := true
	return s.Update(ctx, id, UpdateFields{Completed: &done})
}

// Toggle flips the completion state of a reminder.
func (s *Store) Toggle(ctx context.Context, id string) (*Reminder, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	flipped := !current.Completed
	return s.Update(ctx, id, UpdateFields{Completed: &flipped})
}

// Delete removes a reminder by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}

	s.emit(ChangeDeleted, *existing)
	return nil
}

// Update applies partial updates to a reminder.
func (s *Store) Update(ctx context.Context, id string, fields UpdateFields) (*Reminder, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *existing
	if fields.Title != nil {
		next.Title = strings.TrimSpace(*fields.Title)
	}
	if fields.Description != nil {
		next.Description = *fields.Description
	}
	if fields.Date != nil {
		next.Date = strings.TrimSpace(*fields.Date)
	}
	if fields.Time != nil {
		next.Time = strings.TrimSpace(*fields.Time)
	}
	if fields.Priority != nil {
		next.Priority = strings.ToLower(strings.TrimSpace(*fields.Priority))
	}
	if fields.Category != nil {
		next.Category = *fields.Category
	}
	if fields.Completed != nil {
		next.Completed = *fields.Completed
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders
		SET title = ?, description = ?, date = ?, time = ?, completed = ?, priority = ?, category = ?, updated_at = ?
		WHERE id = ?
	`, next.Title, next.Description, next.Date, next.Time, next.Completed,
		next.Priority, next.Category, next.UpdatedAt.Format(timestampLayout), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}

	kind := ChangeUpdated
	switch {
	case next.Completed && !existing.Completed:
		kind = ChangeCompleted
	case !next.Completed && existing.Completed:
		kind = ChangeReopened
	}
	s.emit(kind, next)

	return &next, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInto(sc scanner) (*Reminder, error) {
	var r Reminder
	var createdAt, updatedAt string

	if err := sc.Scan(&r.ID, &r.Title, &r.Description,
		&r.Date, &r.Time, &r.Completed, &r.Priority, &r.Category,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	r.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	r.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)

	return &r, nil
}

// scanReminders reads multiple rows into a slice of Reminder.
func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	var reminders []Reminder
	for rows.Next() {
		r, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

// scanReminder reads a single row into a Reminder.
func scanReminder(row *sql.Row) (*Reminder, error) {
	return scanInto(row)
}
