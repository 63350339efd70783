package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces task ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator issues random v4 UUIDs prefixed with "task-".
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return "task-" + uuid.NewString() }

// maxIDAttempts bounds how often NewTaskID retries a generator that keeps
// returning ids already present on the board.
const maxIDAttempts = 8

// NewTaskID asks gen for an id that is not yet used on b.
func NewTaskID(b *Board, gen IDGenerator) (string, error) {
	for range maxIDAttempts {
		id := gen.NewID()
		if id != "" && !b.HasTask(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("domain.NewTaskID: no unused id after %d attempts: %w", maxIDAttempts, ErrConflict)
}
