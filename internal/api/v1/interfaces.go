package v1

import (
	"context"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

// BoardService abstracts the board engine for handler testing.
// *board.Engine satisfies this interface.
type BoardService interface {
	Snapshot() (*domain.Board, uint64)
	AddTask(ctx context.Context, columnID, title, description string) (board.Result, error)
	DeleteTask(ctx context.Context, columnID, taskID string) (board.Result, error)
	EditTask(ctx context.Context, columnID, taskID, title, description string) (board.Result, error)
	MoveTask(ctx context.Context, srcColumnID string, srcIndex int, dstColumnID string, dstIndex int) (board.Result, error)
}
