package domain

import (
	"encoding/json"
	"fmt"
)

// MarshalBoard encodes b in the persisted layout:
// {"columns":[{"id","title","tasks":[{"id","title","description"}]}]}.
func MarshalBoard(b *Board) ([]byte, error) {
	data, err := json.MarshalIndent(normalize(b), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("domain.MarshalBoard: %w", err)
	}
	return data, nil
}

// UnmarshalBoard decodes a persisted board and checks its invariants.
func UnmarshalBoard(data []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("domain.UnmarshalBoard: %w: %w", ErrValidation, err)
	}
	out := normalize(&b)
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("domain.UnmarshalBoard: %w", err)
	}
	return out, nil
}

// Validate checks the board invariants: non-empty ids, unique column ids,
// task ids unique across the whole board.
func (b *Board) Validate() error {
	columns := make(map[string]struct{}, len(b.Columns))
	tasks := make(map[string]struct{})
	for i, c := range b.Columns {
		if c.ID == "" {
			return fmt.Errorf("column %d has empty id: %w", i, ErrValidation)
		}
		if _, dup := columns[c.ID]; dup {
			return fmt.Errorf("duplicate column id %q: %w", c.ID, ErrValidation)
		}
		columns[c.ID] = struct{}{}
		for j, t := range c.Tasks {
			if t.ID == "" {
				return fmt.Errorf("task %d in column %q has empty id: %w", j, c.ID, ErrValidation)
			}
			if _, dup := tasks[t.ID]; dup {
				return fmt.Errorf("duplicate task id %q: %w", t.ID, ErrValidation)
			}
			tasks[t.ID] = struct{}{}
		}
	}
	return nil
}

// normalize returns b with nil task lists replaced by empty ones so that
// they encode as [] and compare equal after a round trip.
func normalize(b *Board) *Board {
	out := &Board{Columns: make([]Column, len(b.Columns))}
	for i, c := range b.Columns {
		if c.Tasks == nil {
			c.Tasks = []Task{}
		}
		out.Columns[i] = c
	}
	return out
}
