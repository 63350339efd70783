package domain

import (
	"context"
	"fmt"
	"strings"
)

// Task is a titled, described unit of work. ID is immutable after creation.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Column is a named, ordered bucket of tasks. Task order is display order.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// Board is the root aggregate and the unit of persistence.
//
// A Board is treated as an immutable value once it has been handed out:
// every operation below returns a new Board and leaves the receiver intact.
// Untouched columns share their task slices with the receiver.
type Board struct {
	Columns []Column `json:"columns"`
}

// BoardRepository is the persistence gateway. Load returns ErrNotFound when
// nothing has been persisted yet. Save replaces the whole stored board.
type BoardRepository interface {
	Load(ctx context.Context) (*Board, error)
	Save(ctx context.Context, b *Board) error
}

// Quarantiner is implemented by gateways that can move an unreadable stored
// board out of the way. Quarantine returns where the old document now lives.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// TaskCount returns the number of tasks across all columns.
func (b *Board) TaskCount() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}

// Column returns the column with the given id.
func (b *Board) Column(columnID string) (Column, bool) {
	i := b.columnIndex(columnID)
	if i < 0 {
		return Column{}, false
	}
	return b.Columns[i], true
}

// HasTask reports whether any column holds a task with the given id.
func (b *Board) HasTask(taskID string) bool {
	for _, c := range b.Columns {
		if taskIndex(c.Tasks, taskID) >= 0 {
			return true
		}
	}
	return false
}

// FindTask locates a task anywhere on the board.
func (b *Board) FindTask(taskID string) (columnID string, index int, ok bool) {
	for _, c := range b.Columns {
		if i := taskIndex(c.Tasks, taskID); i >= 0 {
			return c.ID, i, true
		}
	}
	return "", -1, false
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := &Board{Columns: make([]Column, len(b.Columns))}
	for i, c := range b.Columns {
		out.Columns[i] = Column{ID: c.ID, Title: c.Title, Tasks: cloneTasks(c.Tasks)}
	}
	return out
}

// AddTask appends t to the end of the column's task list.
func (b *Board) AddTask(columnID string, t Task) (*Board, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, fmt.Errorf("domain.Board.AddTask: title is required: %w", ErrValidation)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("domain.Board.AddTask: task id is required: %w", ErrValidation)
	}
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return nil, fmt.Errorf("domain.Board.AddTask: column %q: %w", columnID, ErrNotFound)
	}
	if b.HasTask(t.ID) {
		return nil, fmt.Errorf("domain.Board.AddTask: task %q already exists: %w", t.ID, ErrConflict)
	}

	next := b.shallowCopy()
	src := b.Columns[ci].Tasks
	tasks := make([]Task, len(src), len(src)+1)
	copy(tasks, src)
	next.Columns[ci].Tasks = append(tasks, t)
	return next, nil
}

// DeleteTask removes the task from the column. A missing column or task
// yields the receiver unchanged.
func (b *Board) DeleteTask(columnID, taskID string) *Board {
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return b
	}
	ti := taskIndex(b.Columns[ci].Tasks, taskID)
	if ti < 0 {
		return b
	}

	next := b.shallowCopy()
	next.Columns[ci].Tasks = removeAt(b.Columns[ci].Tasks, ti)
	return next
}

// EditTask replaces the title and description of a task in place. Its id
// and position are preserved.
func (b *Board) EditTask(columnID, taskID, title, description string) (*Board, error) {
	ci := b.columnIndex(columnID)
	if ci < 0 {
		return nil, fmt.Errorf("domain.Board.EditTask: column %q: %w", columnID, ErrNotFound)
	}
	ti := taskIndex(b.Columns[ci].Tasks, taskID)
	if ti < 0 {
		return nil, fmt.Errorf("domain.Board.EditTask: task %q in column %q: %w", taskID, columnID, ErrNotFound)
	}

	next := b.shallowCopy()
	tasks := cloneTasks(b.Columns[ci].Tasks)
	tasks[ti].Title = title
	tasks[ti].Description = description
	next.Columns[ci].Tasks = tasks
	return next, nil
}

// MoveTask removes the task at srcIndex of the source column and inserts it
// at dstIndex of the destination column. dstIndex is relative to the
// destination list after the removal, so len(list) appends.
func (b *Board) MoveTask(srcColumnID string, srcIndex int, dstColumnID string, dstIndex int) (*Board, error) {
	si := b.columnIndex(srcColumnID)
	if si < 0 {
		return nil, fmt.Errorf("domain.Board.MoveTask: source column %q: %w", srcColumnID, ErrNotFound)
	}
	di := b.columnIndex(dstColumnID)
	if di < 0 {
		return nil, fmt.Errorf("domain.Board.MoveTask: destination column %q: %w", dstColumnID, ErrNotFound)
	}

	src := b.Columns[si].Tasks
	if srcIndex < 0 || srcIndex >= len(src) {
		return nil, fmt.Errorf("domain.Board.MoveTask: source index %d not in [0,%d): %w", srcIndex, len(src), ErrOutOfRange)
	}

	dstLen := len(b.Columns[di].Tasks)
	if si == di {
		dstLen--
	}
	if dstIndex < 0 || dstIndex > dstLen {
		return nil, fmt.Errorf("domain.Board.MoveTask: destination index %d not in [0,%d]: %w", dstIndex, dstLen, ErrOutOfRange)
	}

	if si == di && srcIndex == dstIndex {
		return b, nil
	}

	moved := src[srcIndex]
	next := b.shallowCopy()
	next.Columns[si].Tasks = removeAt(src, srcIndex)
	next.Columns[di].Tasks = insertAt(next.Columns[di].Tasks, dstIndex, moved)
	return next, nil
}

// shallowCopy copies the column headers; task slices are still shared and
// must be replaced, never written through, by the caller.
func (b *Board) shallowCopy() *Board {
	cols := make([]Column, len(b.Columns))
	copy(cols, b.Columns)
	return &Board{Columns: cols}
}

func (b *Board) columnIndex(columnID string) int {
	for i, c := range b.Columns {
		if c.ID == columnID {
			return i
		}
	}
	return -1
}

func taskIndex(tasks []Task, taskID string) int {
	for i, t := range tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func removeAt(tasks []Task, i int) []Task {
	out := make([]Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}

func insertAt(tasks []Task, i int, t Task) []Task {
	out := make([]Task, 0, len(tasks)+1)
	out = append(out, tasks[:i]...)
	out = append(out, t)
	return append(out, tasks[i:]...)
}
