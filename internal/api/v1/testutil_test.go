package v1_test

import (
	"context"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock BoardService
// ---------------------------------------------------------------------------

type mockBoardService struct {
	snapshotFunc   func() (*domain.Board, uint64)
	addTaskFunc    func(ctx context.Context, columnID, title, description string) (board.Result, error)
	deleteTaskFunc func(ctx context.Context, columnID, taskID string) (board.Result, error)
	editTaskFunc   func(ctx context.Context, columnID, taskID, title, description string) (board.Result, error)
	moveTaskFunc   func(ctx context.Context, srcColumnID string, srcIndex int, dstColumnID string, dstIndex int) (board.Result, error)
}

func (m *mockBoardService) Snapshot() (*domain.Board, uint64) {
	return m.snapshotFunc()
}

func (m *mockBoardService) AddTask(ctx context.Context, columnID, title, description string) (board.Result, error) {
	return m.addTaskFunc(ctx, columnID, title, description)
}

func (m *mockBoardService) DeleteTask(ctx context.Context, columnID, taskID string) (board.Result, error) {
	return m.deleteTaskFunc(ctx, columnID, taskID)
}

func (m *mockBoardService) EditTask(ctx context.Context, columnID, taskID, title, description string) (board.Result, error) {
	return m.editTaskFunc(ctx, columnID, taskID, title, description)
}

func (m *mockBoardService) MoveTask(ctx context.Context, srcColumnID string, srcIndex int, dstColumnID string, dstIndex int) (board.Result, error) {
	return m.moveTaskFunc(ctx, srcColumnID, srcIndex, dstColumnID, dstIndex)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func fixtureBoard() *domain.Board {
	return &domain.Board{Columns: []domain.Column{
		{ID: "todo", Title: "To Do", Tasks: []domain.Task{
			{ID: "task-1", Title: "Write docs", Description: "readme"},
		}},
		{ID: "in-progress", Title: "In Progress", Tasks: []domain.Task{}},
		{ID: "done", Title: "Done", Tasks: []domain.Task{}},
	}}
}
