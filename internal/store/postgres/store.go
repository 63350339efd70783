package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
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
	`CREATE INDEX IF NOT EXISTS board_tasks_column_position ON board_tasks (board, column_id, position)`,
}

type Store struct {
	pool   *pgxpool.Pool
	boards *BoardRepo
}

func New(ctx context.Context, dsn string, maxConns int32, board string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres.New: apply schema: %w", err)
		}
	}

	return &Store{
		pool:   pool,
		boards: NewBoardRepo(pool, board),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Boards() *BoardRepo { return s.boards }
