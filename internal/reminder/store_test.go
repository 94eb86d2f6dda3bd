package reminder

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "reminders.db"), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore_AddAppliesDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r, err := store.Add(ctx, Reminder{Title: "  Water plants "})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Water plants", r.Title)
	assert.Equal(t, PriorityMedium, r.Priority)
	assert.Equal(t, DefaultCategory, r.Category)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_AddRejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, Reminder{Title: ""})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = store.Add(ctx, Reminder{Title: "x", Priority: "whenever"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = store.Add(ctx, Reminder{Title: "x", Time: "noon"})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListOrdersByDueThenUndated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, Reminder{Title: "undated"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Reminder{Title: "later", Date: "2026-05-02", Time: "08:00"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Reminder{Title: "sooner", Date: "2026-05-01", Time: "18:00"})
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "sooner", all[0].Title)
	assert.Equal(t, "later", all[1].Title)
	assert.Equal(t, "undated", all[2].Title)
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Buy milk", "Call mom", "Buy bread", "100% done"} {
		_, err := store.Add(ctx, Reminder{Title: title})
		require.NoError(t, err)
	}
	bread, err := store.Search(ctx, Query{Text: "bread"})
	require.NoError(t, err)
	require.Len(t, bread.Items, 1)
	_, err = store.Complete(ctx, bread.Items[0].ID)
	require.NoError(t, err)

	t.Run("case insensitive text newest first", func(t *testing.T) {
		page, err := store.Search(ctx, Query{Text: "BUY"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Buy bread", page.Items[0].Title)
		assert.Equal(t, "Buy milk", page.Items[1].Title)
	})

	t.Run("completion filter", func(t *testing.T) {
		done := true
		page, err := store.Search(ctx, Query{Completed: &done})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "Buy bread", page.Items[0].Title)

		pending := false
		page, err = store.Search(ctx, Query{Completed: &pending})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		page, err := store.Search(ctx, Query{Text: "%"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "100% done", page.Items[0].Title)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := store.Search(ctx, Query{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 3, page.Limit)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Buy milk", page.Items[0].Title)
	})

	t.Run("empty page is not nil", func(t *testing.T) {
		page, err := store.Search(ctx, Query{Text: "nothing matches"})
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})
}

func TestStore_UpdatePartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r, err := store.Add(ctx, Reminder{
		Title:       "Standup",
		Description: "daily",
		Date:        "2026-05-01",
		Time:        "09:00",
		Priority:    PriorityLow,
	})
	require.NoError(t, err)

	title := "Team standup"
	updated, err := store.Update(ctx, r.ID, UpdateFields{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Team standup", updated.Title)
	assert.Equal(t, "daily", updated.Description)
	assert.Equal(t, "09:00", updated.Time)
	assert.Equal(t, PriorityLow, updated.Priority)

	empty := ""
	cleared, err := store.Update(ctx, r.ID, UpdateFields{Date: &empty, Time: &empty})
	require.NoError(t, err)
	assert.Empty(t, cleared.Date)
	assert.Empty(t, cleared.Time)

	bad := "sometime"
	_, err = store.Update(ctx, r.ID, UpdateFields{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = store.Update(ctx, "missing", UpdateFields{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ToggleAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r, err := store.Add(ctx, Reminder{Title: "Stretch"})
	require.NoError(t, err)

	toggled, err := store.Toggle(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = store.Toggle(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	require.NoError(t, store.Delete(ctx, r.ID))
	assert.ErrorIs(t, store.Delete(ctx, r.ID), ErrNotFound)
}

func TestStore_Resolve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r, err := store.Add(ctx, Reminder{Title: "Prefix"})
	require.NoError(t, err)

	id, err := store.Resolve(ctx, r.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, r.ID, id)

	_, err = store.Resolve(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Resolve(ctx, "")
	assert.Error(t, err)
}

func TestStore_OnChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var kinds []ChangeKind
	store.OnChange(func(c Change) {
		panic("listener failure must not break writes")
	})
	store.OnChange(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, c.Kind)
	})

	r, err := store.Add(ctx, Reminder{Title: "Hooked"})
	require.NoError(t, err)

	desc := "more"
	_, err = store.Update(ctx, r.ID, UpdateFields{Description: &desc})
	require.NoError(t, err)
	_, err = store.Complete(ctx, r.ID)
	require.NoError(t, err)
	_, err = store.Toggle(ctx, r.ID)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, r.ID))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ChangeKind{
		ChangeCreated, ChangeUpdated, ChangeCompleted, ChangeReopened, ChangeDeleted,
	}, kinds)
}
