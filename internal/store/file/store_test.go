package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/store/file"
)

var (
	_ domain.BoardRepository = (*file.BoardStore)(nil)
	_ domain.Quarantiner     = (*file.BoardStore)(nil)
)

func sampleBoard() *domain.Board {
	return &domain.Board{Columns: []domain.Column{
		{ID: "todo", Title: "To Do", Tasks: []domain.Task{
			{ID: "task-1", Title: "Learn Go", Description: "tour"},
			{ID: "task-2", Title: "Build board", Description: ""},
		}},
		{ID: "in-progress", Title: "In Progress", Tasks: []domain.Task{}},
		{ID: "done", Title: "Done", Tasks: []domain.Task{{ID: "task-3", Title: "Set up", Description: "init"}}},
	}}
}

func TestBoardStore_LoadMissingIsNotFound(t *testing.T) {
	t.Parallel()

	s := file.New(filepath.Join(t.TempDir(), "tasks.json"))
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoardStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.json")
	s := file.New(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBoard()))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleBoard(), got)

	// Replace-on-write: a second save fully replaces the first.
	smaller := sampleBoard().DeleteTask("todo", "task-1")
	require.NoError(t, s.Save(ctx, smaller))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestBoardStore_WritesIndentedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")
	s := file.New(path)
	require.NoError(t, s.Save(context.Background(), sampleBoard()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"columns\": [")
	assert.Equal(t, path, s.Path())
}

func TestBoardStore_CorruptFileIsValidationError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := file.New(path).Load(context.Background())
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestBoardStore_UnwritableDirIsIOError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// A regular file where a directory is expected cannot be created into.
	s := file.New(filepath.Join(blocker, "tasks.json"))
	err := s.Save(context.Background(), sampleBoard())
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestBoardStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := file.New(filepath.Join(t.TempDir(), "tasks.json"))
	require.ErrorIs(t, s.Save(ctx, sampleBoard()), context.Canceled)
	_, err := s.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBoardStore_Quarantine(t *testing.T) {
	t.Parallel()

	t.Run("moves_document_aside", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "tasks.json")
		unreadable := []byte(`{"columns":[{"id":"todo","title":"To Do","tasks":[{"id":"task-1","title":"important","description":""},]}]}`)
		require.NoError(t, os.WriteFile(path, unreadable, 0o600))

		s := file.New(path)
		_, err := s.Load(context.Background())
		require.ErrorIs(t, err, domain.ErrValidation)

		moved, err := s.Quarantine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, dir, filepath.Dir(moved))
		assert.Contains(t, filepath.Base(moved), "tasks.json.unreadable-")

		data, err := os.ReadFile(moved)
		require.NoError(t, err)
		assert.Equal(t, unreadable, data)

		_, err = s.Load(context.Background())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing_document_is_io_error", func(t *testing.T) {
		t.Parallel()

		s := file.New(filepath.Join(t.TempDir(), "tasks.json"))
		_, err := s.Quarantine(context.Background())
		require.ErrorIs(t, err, domain.ErrIO)
	})
}
