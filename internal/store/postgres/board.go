package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/taskboard/internal/domain"
)

// BoardRepo stores one named board as rows of columns and tasks.
type BoardRepo struct {
	pool  *pgxpool.Pool
	board string
}

func NewBoardRepo(pool *pgxpool.Pool, board string) *BoardRepo {
	return &BoardRepo{pool: pool, board: board}
}

func (r *BoardRepo) Load(ctx context.Context) (*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title FROM board_columns WHERE board = $1 ORDER BY position`,
		r.board,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Load: columns: %w: %w", domain.ErrIO, err)
	}
	defer rows.Close()

	b := &domain.Board{}
	index := make(map[string]int)
	for rows.Next() {
		c := domain.Column{Tasks: []domain.Task{}}
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, fmt.Errorf("boardRepo.Load: scan column: %w: %w", domain.ErrIO, err)
		}
		index[c.ID] = len(b.Columns)
		b.Columns = append(b.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.Load: columns rows: %w: %w", domain.ErrIO, err)
	}
	if len(b.Columns) == 0 {
		return nil, fmt.Errorf("boardRepo.Load: board %q: %w", r.board, domain.ErrNotFound)
	}

	taskRows, err := r.pool.Query(ctx,
		`SELECT id, column_id, title, description FROM board_tasks
		 WHERE board = $1 ORDER BY column_id, position`,
		r.board,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Load: tasks: %w: %w", domain.ErrIO, err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var (
			t        domain.Task
			columnID string
		)
		if err := taskRows.Scan(&t.ID, &columnID, &t.Title, &t.Description); err != nil {
			return nil, fmt.Errorf("boardRepo.Load: scan task: %w: %w", domain.ErrIO, err)
		}
		if ci, ok := index[columnID]; ok {
			b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, t)
		}
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.Load: tasks rows: %w: %w", domain.ErrIO, err)
	}

	return b, nil
}

// Save replaces the stored board in one transaction.
func (r *BoardRepo) Save(ctx context.Context, b *domain.Board) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM board_tasks WHERE board = $1`, r.board)
		batch.Queue(`DELETE FROM board_columns WHERE board = $1`, r.board)
		for ci, c := range b.Columns {
			batch.Queue(
				`INSERT INTO board_columns (board, id, title, position) VALUES ($1, $2, $3, $4)`,
				r.board, c.ID, c.Title, ci,
			)
		}
		for _, c := range b.Columns {
			for ti, t := range c.Tasks {
				batch.Queue(
					`INSERT INTO board_tasks (board, id, column_id, title, description, position)
					 VALUES ($1, $2, $3, $4, $5, $6)`,
					r.board, t.ID, c.ID, t.Title, t.Description, ti,
				)
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("boardRepo.Save: %w: %w", domain.ErrIO, err)
	}

	return nil
}
