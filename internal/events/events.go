// Package events defines the live board feed: event payloads and the broker
// contract they travel through.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gosuda/taskboard/internal/domain"
)

// Type names a board change.
type Type string

const (
	TypeBoardLoaded Type = "board_loaded"
	TypeTaskCreated Type = "task_created"
	TypeTaskUpdated Type = "task_updated"
	TypeTaskDeleted Type = "task_deleted"
	TypeTaskMoved   Type = "task_moved"
	TypeSaveFailed  Type = "save_failed"
	// TypeSnapshot is sent once to a feed subscriber when it connects.
	TypeSnapshot Type = "snapshot"
)

// BoardEvent is one real-time board update. Board carries the full state
// after the change so subscribers never have to merge.
type BoardEvent struct {
	Type     Type          `json:"type"`
	Revision uint64        `json:"revision"`
	ColumnID string        `json:"column_id,omitempty"`
	TaskID   string        `json:"task_id,omitempty"`
	Board    *domain.Board `json:"board,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Encode returns the JSON payload for e.
func (e BoardEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("events.BoardEvent.Encode: %w", err)
	}
	return data, nil
}

// Broker fans payloads out to channel subscribers.
// Both *Local and the redis-backed PubSub satisfy it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// BoardChannel returns the channel name for a board.
func BoardChannel(boardName string) string {
	return "board:" + boardName
}
