package learnings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, clock *fakeClock) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewProjectStore(context.Background(), dir, WithClock(clock.Now)), dir
}

func TestAdd(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store, dir := newTestStore(t, clock)

	learning, err := store.Add(NewLearning{
		Title:      "  Use React.memo for list rows ",
		Content:    "Wrap heavy rows in React.memo.",
		Tags:       []string{"react", "performance", "React", " "},
		Frameworks: []string{"react"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, learning.ID)
	assert.Equal(t, "Use React.memo for list rows", learning.Title)
	assert.Equal(t, memtypes.ScopeProject, learning.Scope)
	assert.Equal(t, memtypes.SourceManual, learning.Source)
	assert.Equal(t, filepath.Base(dir), learning.Project)
	assert.Equal(t, []string{"react", "performance"}, learning.Tags)
	assert.Equal(t, clock.now, learning.CreatedAt)
	assert.Equal(t, learning.CreatedAt, learning.UpdatedAt)
	assert.Equal(t, 0, learning.UseCount)
	assert.Equal(t, 1, store.Count())
}

func TestAddValidation(t *testing.T) {
	store, _ := newTestStore(t, &fakeClock{now: time.Now()})

	_, err := store.Add(NewLearning{Title: "   "})
	assert.Error(t, err)

	bad := 101
	_, err = store.Add(NewLearning{Title: "x", Effectiveness: &bad})
	assert.Error(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewProjectStore(ctx, dir)
	created, err := first.Add(NewLearning{Title: "Persisted", Content: "body", Tags: []string{"go"}})
	require.NoError(t, err)

	second := NewProjectStore(ctx, dir)
	got, ok := second.GetByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Persisted", got.Title)
	assert.Equal(t, []string{"go"}, got.Tags)
}

func TestGlobalStoreScope(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewGlobalStore(context.Background())
	require.NoError(t, err)

	learning, err := store.Add(NewLearning{Title: "Global tip"})
	require.NoError(t, err)
	assert.Equal(t, memtypes.ScopeGlobal, learning.Scope)
	assert.Empty(t, learning.Project)

	path, err := GlobalPath()
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestIncrementUseCount(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store, _ := newTestStore(t, clock)

	learning, err := store.Add(NewLearning{Title: "Counted"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, store.IncrementUseCount(learning.ID))
	require.NoError(t, store.IncrementUseCount(learning.ID))

	got, ok := store.GetByID(learning.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.UseCount)
	require.NotNil(t, got.LastUsed)
	assert.Equal(t, clock.now, *got.LastUsed)

	err = store.IncrementUseCount("missing")
	assert.ErrorIs(t, err, ErrLearningNotFound)
}

func TestUpdateAndEffectiveness(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store, _ := newTestStore(t, clock)

	learning, err := store.Add(NewLearning{Title: "Old", Content: "old body", Tags: []string{"a"}})
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	title := "New"
	updated, err := store.Update(learning.ID, LearningUpdate{Title: &title, Tags: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "old body", updated.Content)
	assert.Equal(t, []string{"b"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	rated, err := store.SetEffectiveness(learning.ID, 80)
	require.NoError(t, err)
	require.NotNil(t, rated.Effectiveness)
	assert.Equal(t, 80, *rated.Effectiveness)

	_, err = store.SetEffectiveness(learning.ID, -1)
	assert.Error(t, err)

	empty := " "
	_, err = store.Update(learning.ID, LearningUpdate{Title: &empty})
	assert.Error(t, err)
}

func TestUpdatedAtNeverPrecedesCreatedAt(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store, _ := newTestStore(t, clock)

	learning, err := store.Add(NewLearning{Title: "Skewed"})
	require.NoError(t, err)

	clock.Advance(-time.Hour)
	updated, err := store.SetEffectiveness(learning.ID, 10)
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t, &fakeClock{now: time.Now()})

	a, err := store.Add(NewLearning{Title: "a"})
	require.NoError(t, err)
	b, err := store.Add(NewLearning{Title: "b"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(a.ID))
	assert.ErrorIs(t, store.Delete(a.ID), ErrLearningNotFound)

	all := store.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

func TestSearch(t *testing.T) {
	store, _ := newTestStore(t, &fakeClock{now: time.Now()})

	_, err := store.Add(NewLearning{Title: "React hooks cleanup", Content: "Return a cleanup function from useEffect.", Tags: []string{"react"}})
	require.NoError(t, err)
	_, err = store.Add(NewLearning{Title: "Go error wrapping", Content: "Use errors.Wrap for context.", Tags: []string{"golang"}})
	require.NoError(t, err)
	_, err = store.Add(NewLearning{Title: "Postgres indexes", Content: "Index foreign keys.", Tags: []string{"database"}})
	require.NoError(t, err)

	tests := []struct {
		query    string
		expected []string
	}{
		{"hooks", []string{"React hooks cleanup"}},
		{"USEEFFECT", []string{"React hooks cleanup"}},
		{"golang", []string{"Go error wrapping"}},
		{"cleanup react", []string{"React hooks cleanup"}},
		{"index database", []string{"Postgres indexes"}},
		{"nothing-matches", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var titles []string
			for _, l := range store.Search(tt.query) {
				titles = append(titles, l.Title)
			}
			assert.Equal(t, tt.expected, titles)
		})
	}

	assert.Len(t, store.Search(""), 3)
}

func TestFilters(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	store, _ := newTestStore(t, clock)

	a, err := store.Add(NewLearning{Title: "a", Tags: []string{"React"}, Frameworks: []string{"next.js"}})
	require.NoError(t, err)
	clock.Advance(time.Hour)
	b, err := store.Add(NewLearning{Title: "b", Tags: []string{"go"}})
	require.NoError(t, err)
	require.NoError(t, store.IncrementUseCount(a.ID))

	assert.Len(t, store.GetByTags("react"), 1)
	assert.Len(t, store.GetByFrameworks("NEXT.JS"), 1)
	assert.Empty(t, store.GetByTags("python"))

	recent := store.GetRecent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, b.ID, recent[0].ID)

	used := store.GetMostUsed(5)
	require.Len(t, used, 2)
	assert.Equal(t, a.ID, used[0].ID)
}

func TestReturnedLearningsAreCopies(t *testing.T) {
	store, _ := newTestStore(t, &fakeClock{now: time.Now()})
	learning, err := store.Add(NewLearning{Title: "a", Tags: []string{"x"}})
	require.NoError(t, err)

	all := store.GetAll()
	all[0].Tags[0] = "mutated"

	got, _ := store.GetByID(learning.ID)
	assert.Equal(t, []string{"x"}, got.Tags)
}

func TestCorruptFileYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := ProjectPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(":::not yaml\n\t- ["), 0o644))

	store := NewProjectStore(context.Background(), dir)
	assert.Equal(t, 0, store.Count())
	assert.Empty(t, store.Search("anything"))
}

func TestLoadedLearningsTakeStoreScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnings.yaml")
	doc := `version: 1
learnings:
  - id: g1
    title: Memoize list rows
    tags: [react]
  - id: g2
    title: Mislabelled tip
    scope: project
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store := NewStore(context.Background(), memtypes.ScopeGlobal, path)
	require.Equal(t, 2, store.Count())
	for _, l := range store.GetAll() {
		assert.Equal(t, memtypes.ScopeGlobal, l.Scope, l.ID)
	}
}
