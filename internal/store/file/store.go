// Package file persists the board as a single pretty-printed JSON document.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/gosuda/taskboard/internal/domain"
)

// BoardStore reads and writes the board at path.
type BoardStore struct {
	path string
}

func New(path string) *BoardStore {
	return &BoardStore{path: path}
}

// Path returns the file the store writes to.
func (s *BoardStore) Path() string { return s.path }

func (s *BoardStore) Load(ctx context.Context) (*domain.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("file.BoardStore.Load: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file.BoardStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("file.BoardStore.Load: %w: %w", domain.ErrIO, err)
	}

	b, err := domain.UnmarshalBoard(data)
	if err != nil {
		return nil, fmt.Errorf("file.BoardStore.Load: %s: %w", s.path, err)
	}
	return b, nil
}

// Save replaces the stored document atomically, so readers never observe a
// partial board.
func (s *BoardStore) Save(ctx context.Context, b *domain.Board) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("file.BoardStore.Save: %w", err)
	}

	data, err := domain.MarshalBoard(b)
	if err != nil {
		return fmt.Errorf("file.BoardStore.Save: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("file.BoardStore.Save: mkdir: %w: %w", domain.ErrIO, err)
	}
	if err := atomicwriter.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("file.BoardStore.Save: write: %w: %w", domain.ErrIO, err)
	}

	return nil
}

// Quarantine renames the stored document to <path>.unreadable-<unixnano>
// and returns the new path.
func (s *BoardStore) Quarantine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("file.BoardStore.Quarantine: %w", err)
	}

	dst := fmt.Sprintf("%s.unreadable-%d", s.path, time.Now().UnixNano())
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("file.BoardStore.Quarantine: %w: %w", domain.ErrIO, err)
	}
	return dst, nil
}
