// Package sqlite provides a SQLite-backed board store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/gosuda/taskboard/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS board_columns (
	   board    TEXT    NOT NULL,
	   id       TEXT    NOT NULL,
	   title    TEXT    NOT NULL,
	   position INTEGER NOT NULL,
	   PRIMARY KEY (board, id)
	 )`,
	`CREATE TABLE IF NOT EXISTS board_tasks (
	   board       TEXT    NOT NULL,
	   id          TEXT    NOT NULL,
	   column_id   TEXT    NOT NULL,
	   title       TEXT    NOT NULL,
	   description TEXT    NOT NULL,
	   position    INTEGER NOT NULL,
	   PRIMARY KEY (board, id),
	   FOREIGN KEY (board, column_id) REFERENCES board_columns (board, id) ON DELETE CASCADE
	 )`,
}

// BoardStore persists one named board in SQLite.
type BoardStore struct {
	sqlDB *sql.DB
	board string
}

// Open opens the database at path, applies the schema and returns a store
// for the named board.
func Open(path, board string) (*BoardStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite.Open: storage path is required")
	}
	if strings.TrimSpace(board) == "" {
		return nil, errors.New("sqlite.Open: board name is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}
	// One connection: the engine is the only writer and SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite.Open: ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlite.Open: apply schema: %w", err)
		}
	}

	return &BoardStore{sqlDB: sqlDB, board: board}, nil
}

// Close closes the SQLite handle.
func (s *BoardStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *BoardStore) Load(ctx context.Context) (*domain.Board, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, title FROM board_columns WHERE board = ? ORDER BY position`,
		s.board,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.BoardStore.Load: columns: %w: %w", domain.ErrIO, err)
	}
	defer rows.Close()

	b := &domain.Board{}
	index := make(map[string]int)
	for rows.Next() {
		c := domain.Column{Tasks: []domain.Task{}}
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, fmt.Errorf("sqlite.BoardStore.Load: scan column: %w: %w", domain.ErrIO, err)
		}
		index[c.ID] = len(b.Columns)
		b.Columns = append(b.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.BoardStore.Load: columns rows: %w: %w", domain.ErrIO, err)
	}
	// Release the only connection before the task query.
	_ = rows.Close()
	if len(b.Columns) == 0 {
		return nil, fmt.Errorf("sqlite.BoardStore.Load: board %q: %w", s.board, domain.ErrNotFound)
	}

	taskRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, column_id, title, description FROM board_tasks WHERE board = ? ORDER BY column_id, position`,
		s.board,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.BoardStore.Load: tasks: %w: %w", domain.ErrIO, err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var (
			t        domain.Task
			columnID string
		)
		if err := taskRows.Scan(&t.ID, &columnID, &t.Title, &t.Description); err != nil {
			return nil, fmt.Errorf("sqlite.BoardStore.Load: scan task: %w: %w", domain.ErrIO, err)
		}
		ci, ok := index[columnID]
		if !ok {
			continue
		}
		b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, t)
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.BoardStore.Load: tasks rows: %w: %w", domain.ErrIO, err)
	}

	return b, nil
}

// Save replaces the stored board in one transaction.
func (s *BoardStore) Save(ctx context.Context, b *domain.Board) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: begin: %w: %w", domain.ErrIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_tasks WHERE board = ?`, s.board); err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: clear tasks: %w: %w", domain.ErrIO, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM board_columns WHERE board = ?`, s.board); err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: clear columns: %w: %w", domain.ErrIO, err)
	}

	colStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO board_columns (board, id, title, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: prepare columns: %w: %w", domain.ErrIO, err)
	}
	defer colStmt.Close()

	taskStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO board_tasks (board, id, column_id, title, description, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: prepare tasks: %w: %w", domain.ErrIO, err)
	}
	defer taskStmt.Close()

	for ci, c := range b.Columns {
		if _, err := colStmt.ExecContext(ctx, s.board, c.ID, c.Title, ci); err != nil {
			return fmt.Errorf("sqlite.BoardStore.Save: insert column %q: %w: %w", c.ID, domain.ErrIO, err)
		}
		for ti, t := range c.Tasks {
			if _, err := taskStmt.ExecContext(ctx, s.board, t.ID, c.ID, t.Title, t.Description, ti); err != nil {
				return fmt.Errorf("sqlite.BoardStore.Save: insert task %q: %w: %w", t.ID, domain.ErrIO, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite.BoardStore.Save: commit: %w: %w", domain.ErrIO, err)
	}
	return nil
}
