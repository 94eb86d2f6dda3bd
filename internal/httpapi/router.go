package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/notexe/rimix/internal/engine"
	"github.com/notexe/rimix/internal/reminder"
)

// Store is the reminder persistence used by the handlers.
type Store interface {
	Add(ctx context.Context, r reminder.Reminder) (*reminder.Reminder, error)
	Search(ctx context.Context, q reminder.Query) (*reminder.Page, error)
	Get(ctx context.Context, id string) (*reminder.Reminder, error)
	Update(ctx context.Context, id string, fields reminder.UpdateFields) (*reminder.Reminder, error)
	Delete(ctx context.Context, id string) error
}

// AlarmControl exposes the engine's alarm to the API.
type AlarmControl interface {
	AlarmState() engine.AlarmState
	DismissAlarm() bool
}

// Importer turns an uploaded document into drafts.
type Importer interface {
	ImportBody(ctx context.Context, body string) ([]reminder.Draft, error)
}

type Deps struct {
	Store    Store
	Alarm    AlarmControl
	Importer Importer
	Logger   *log.Logger

	CORSAllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = log.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.CORSAllowedOrigins) > 0 {
		r.Use(CORS(d.CORSAllowedOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rh := &ReminderHandler{Store: d.Store, Importer: d.Importer, Logger: d.Logger}

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Create)
		r.Post("/import", rh.Import)

		r.Get("/{id}", rh.Get)
		r.Put("/{id}", rh.Update)
		r.Patch("/{id}", rh.Update)
		r.Delete("/{id}", rh.Delete)
	})

	if d.Alarm != nil {
		ah := &AlarmHandler{Alarm: d.Alarm}
		r.Get("/alarm", ah.State)
		r.Post("/alarm/dismiss", ah.Dismiss)
	}

	return r
}
