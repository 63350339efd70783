// Package board owns the canonical in-memory board. Every mutation is
// applied and persisted by a single worker goroutine, so mutations always
// see the latest board and saves reach storage in the order they were made.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/events"
)

// Result is the outcome of an applied mutation. SaveErr is non-nil when the
// board advanced in memory but could not be persisted; it wraps domain.ErrIO.
type Result struct {
	Board    *domain.Board
	Task     *domain.Task // set by AddTask and EditTask
	Revision uint64
	SaveErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the task id generator.
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(e *Engine) { e.ids = gen }
}

// WithBroker publishes board events to channel on broker.
func WithBroker(broker events.Broker, channel string) Option {
	return func(e *Engine) {
		e.broker = broker
		e.channel = channel
	}
}

// WithSaveTimeout bounds each save. Zero leaves the deadline to the gateway.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) { e.saveTimeout = d }
}

// Engine is the board state-management engine.
type Engine struct {
	repo        domain.BoardRepository
	columns     domain.ColumnSet
	ids         domain.IDGenerator
	broker      events.Broker
	channel     string
	saveTimeout time.Duration

	current atomic.Pointer[snapshot]

	// saveBlocked is set when the stored board could not be loaded nor moved
	// aside. Only the worker reads or writes it.
	saveBlocked error

	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	initOnce  sync.Once
}

type snapshot struct {
	board    *domain.Board
	revision uint64
}

// mutation is what an apply step hands back to the worker.
type mutation struct {
	board    *domain.Board
	task     *domain.Task
	event    events.BoardEvent
	skipSave bool
}

type job struct {
	ctx   context.Context
	apply func(cur *domain.Board) (mutation, error)
	reply chan outcome
}

type outcome struct {
	result Result
	err    error
}

// New creates an Engine over repo and starts its worker. The engine holds
// the empty configured board until Initialize is called.
func New(repo domain.BoardRepository, columns domain.ColumnSet, opts ...Option) *Engine {
	e := &Engine{
		repo:    repo,
		columns: columns,
		ids:     domain.UUIDGenerator{},
		jobs:    make(chan job),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(&snapshot{board: columns.EmptyBoard()})

	go e.run()
	return e
}

// Close stops the worker after the in-flight mutation, if any, finishes.
// Mutations issued afterwards fail with domain.ErrClosed.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.quit) })
	<-e.done
}

// Board returns the current board. It never waits on persistence.
// The returned board must be treated as read-only.
func (e *Engine) Board() *domain.Board {
	return e.current.Load().board
}

// Snapshot returns the current board together with its revision.
func (e *Engine) Snapshot() (*domain.Board, uint64) {
	s := e.current.Load()
	return s.board, s.revision
}

// Initialize loads the persisted board and adopts it. It never fails: a
// missing board or a load error falls back to the empty configured board.
// A board that had to be reconciled with the configured columns, or the
// default board on first run, is persisted once.
//
// An unreadable stored board is moved aside when the gateway implements
// domain.Quarantiner. Otherwise every later save fails with domain.ErrIO
// instead of replacing it.
//
// Only the first call loads; later calls return the current board.
func (e *Engine) Initialize(ctx context.Context) *domain.Board {
	e.initOnce.Do(func() { e.initialize(ctx) })
	return e.Board()
}

func (e *Engine) initialize(ctx context.Context) {
	b, persist, blocked := e.load(ctx)

	// The loaded board must be adopted even if ctx is done by now.
	_, err := e.submit(context.WithoutCancel(ctx), func(_ *domain.Board) (mutation, error) {
		e.saveBlocked = blocked
		return mutation{
			board:    b,
			event:    events.BoardEvent{Type: events.TypeBoardLoaded},
			skipSave: !persist,
		}, nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("board: initialize could not adopt loaded board")
	}
}

func (e *Engine) load(ctx context.Context) (*domain.Board, bool, error) {
	loaded, err := e.repo.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info().Msg("board: no persisted board, starting with empty columns")
		return e.columns.EmptyBoard(), true, nil
	case err != nil:
		log.Warn().Err(err).Msg("board: load failed, starting with empty columns")
		if qerr := e.quarantine(ctx); qerr != nil {
			log.Error().Err(qerr).Msg("board: stored board kept in place, saves disabled")
			return e.columns.EmptyBoard(), false,
				fmt.Errorf("board.Engine: stored board could not be loaded and is kept: %w: %w", domain.ErrIO, err)
		}
		return e.columns.EmptyBoard(), true, nil
	}

	b, rep := domain.Reconcile(loaded, e.columns)
	if rep.Changed() {
		log.Warn().
			Int("relocated", rep.Relocated).
			Strs("dropped_columns", rep.DroppedColumns).
			Int("duplicate_tasks", rep.DuplicateTasks).
			Int("merged_columns", rep.MergedColumns).
			Int("added_columns", rep.AddedColumns).
			Int("retitled_columns", rep.RetitledColumns).
			Bool("reordered", rep.Reordered).
			Msg("board: persisted board adapted to configured columns")
	}
	return b, rep.Changed(), nil
}

// quarantine moves the unreadable stored board aside so the fresh board can
// be saved without destroying it.
func (e *Engine) quarantine(ctx context.Context) error {
	q, ok := e.repo.(domain.Quarantiner)
	if !ok {
		return errors.New("board.Engine.quarantine: gateway cannot move the stored board aside")
	}
	moved, err := q.Quarantine(ctx)
	if err != nil {
		return fmt.Errorf("board.Engine.quarantine: %w", err)
	}
	log.Warn().Str("moved_to", moved).Msg("board: unreadable board moved aside")
	return nil
}

// AddTask appends a new task to the end of a column.
func (e *Engine) AddTask(ctx context.Context, columnID, title, description string) (Result, error) {
	return e.submit(ctx, func(cur *domain.Board) (mutation, error) {
		id, err := domain.NewTaskID(cur, e.ids)
		if err != nil {
			return mutation{}, err
		}
		t := domain.Task{ID: id, Title: title, Description: description}
		next, err := cur.AddTask(columnID, t)
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			board: next,
			task:  &t,
			event: events.BoardEvent{Type: events.TypeTaskCreated, ColumnID: columnID, TaskID: id},
		}, nil
	})
}

// DeleteTask removes a task. Missing targets are not an error; the board is
// still persisted.
func (e *Engine) DeleteTask(ctx context.Context, columnID, taskID string) (Result, error) {
	return e.submit(ctx, func(cur *domain.Board) (mutation, error) {
		return mutation{
			board: cur.DeleteTask(columnID, taskID),
			event: events.BoardEvent{Type: events.TypeTaskDeleted, ColumnID: columnID, TaskID: taskID},
		}, nil
	})
}

// EditTask replaces a task's title and description.
func (e *Engine) EditTask(ctx context.Context, columnID, taskID, title, description string) (Result, error) {
	return e.submit(ctx, func(cur *domain.Board) (mutation, error) {
		next, err := cur.EditTask(columnID, taskID, title, description)
		if err != nil {
			return mutation{}, err
		}
		t := domain.Task{ID: taskID, Title: title, Description: description}
		return mutation{
			board: next,
			task:  &t,
			event: events.BoardEvent{Type: events.TypeTaskUpdated, ColumnID: columnID, TaskID: taskID},
		}, nil
	})
}

// MoveTask relocates the task at srcIndex of srcColumnID to dstIndex of
// dstColumnID. See domain.Board.MoveTask for index semantics.
func (e *Engine) MoveTask(ctx context.Context, srcColumnID string, srcIndex int, dstColumnID string, dstIndex int) (Result, error) {
	return e.submit(ctx, func(cur *domain.Board) (mutation, error) {
		next, err := cur.MoveTask(srcColumnID, srcIndex, dstColumnID, dstIndex)
		if err != nil {
			return mutation{}, err
		}
		dst, _ := next.Column(dstColumnID)
		return mutation{
			board: next,
			event: events.BoardEvent{Type: events.TypeTaskMoved, ColumnID: dstColumnID, TaskID: dst.Tasks[dstIndex].ID},
		}, nil
	})
}

func (e *Engine) submit(ctx context.Context, apply func(cur *domain.Board) (mutation, error)) (Result, error) {
	j := job{ctx: ctx, apply: apply, reply: make(chan outcome, 1)}

	select {
	case e.jobs <- j:
	case <-e.quit:
		return Result{}, fmt.Errorf("board.Engine: %w", domain.ErrClosed)
	case <-ctx.Done():
		return Result{}, fmt.Errorf("board.Engine: %w", ctx.Err())
	}

	// Once handed over, the job always runs to completion.
	out := <-j.reply
	return out.result, out.err
}

func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			return
		case j := <-e.jobs:
			res, err := e.execute(j)
			j.reply <- outcome{result: res, err: err}
		}
	}
}

func (e *Engine) execute(j job) (Result, error) {
	cur := e.current.Load()

	m, err := j.apply(cur.board)
	if err != nil {
		return Result{Board: cur.board, Revision: cur.revision}, err
	}

	next := &snapshot{board: m.board, revision: cur.revision + 1}
	e.current.Store(next)

	res := Result{Board: next.board, Task: m.task, Revision: next.revision}

	m.event.Revision = next.revision
	m.event.Board = next.board
	e.publish(j.ctx, m.event)

	if m.skipSave {
		return res, nil
	}

	if err := e.save(j.ctx, next); err != nil {
		res.SaveErr = err
		e.publish(j.ctx, events.BoardEvent{
			Type:     events.TypeSaveFailed,
			Revision: next.revision,
			Error:    err.Error(),
		})
	}
	return res, nil
}

func (e *Engine) save(ctx context.Context, s *snapshot) error {
	ctx = context.WithoutCancel(ctx)
	if e.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.saveTimeout)
		defer cancel()
	}

	if e.saveBlocked != nil {
		return e.saveBlocked
	}

	if err := e.repo.Save(ctx, s.board); err != nil {
		log.Error().Err(err).Uint64("revision", s.revision).Msg("board: save failed, keeping in-memory board")
		if errors.Is(err, domain.ErrIO) {
			return fmt.Errorf("board.Engine.save: %w", err)
		}
		return fmt.Errorf("board.Engine.save: %w: %w", domain.ErrIO, err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev events.BoardEvent) {
	if e.broker == nil {
		return
	}
	payload, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("board: encode event")
		return
	}
	if err := e.broker.Publish(context.WithoutCancel(ctx), e.channel, payload); err != nil {
		log.Warn().Err(err).Str("type", string(ev.Type)).Msg("board: publish event")
	}
}
