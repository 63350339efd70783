package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ColumnSpec is one configured column.
type ColumnSpec struct {
	ID    string
	Title string
}

// ColumnSet is the fixed, ordered set of columns a board is built from.
// It is established once at startup and never changed by board operations.
type ColumnSet struct {
	specs []ColumnSpec
}

// NewColumnSet validates specs: at least one column, non-empty ids and
// titles, unique ids.
func NewColumnSet(specs []ColumnSpec) (ColumnSet, error) {
	if len(specs) == 0 {
		return ColumnSet{}, fmt.Errorf("domain.NewColumnSet: at least one column is required: %w", ErrValidation)
	}
	seen := make(map[string]struct{}, len(specs))
	out := make([]ColumnSpec, 0, len(specs))
	for i, s := range specs {
		id := strings.TrimSpace(s.ID)
		title := strings.TrimSpace(s.Title)
		if id == "" {
			return ColumnSet{}, fmt.Errorf("domain.NewColumnSet: column %d has empty id: %w", i, ErrValidation)
		}
		if title == "" {
			return ColumnSet{}, fmt.Errorf("domain.NewColumnSet: column %q has empty title: %w", id, ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return ColumnSet{}, fmt.Errorf("domain.NewColumnSet: duplicate column id %q: %w", id, ErrValidation)
		}
		seen[id] = struct{}{}
		out = append(out, ColumnSpec{ID: id, Title: title})
	}
	return ColumnSet{specs: out}, nil
}

// Specs returns a copy of the configured columns in order.
func (cs ColumnSet) Specs() []ColumnSpec {
	out := make([]ColumnSpec, len(cs.specs))
	copy(out, cs.specs)
	return out
}

// Len returns the number of configured columns.
func (cs ColumnSet) Len() int { return len(cs.specs) }

// EmptyBoard returns the default skeleton: every configured column, no tasks.
func (cs ColumnSet) EmptyBoard() *Board {
	b := &Board{Columns: make([]Column, len(cs.specs))}
	for i, s := range cs.specs {
		b.Columns[i] = Column{ID: s.ID, Title: s.Title, Tasks: []Task{}}
	}
	return b
}

// ReconcileReport describes what Reconcile had to change.
type ReconcileReport struct {
	Relocated       int      // tasks moved out of columns that are no longer configured
	DroppedColumns  []string // persisted column ids that are no longer configured
	DuplicateTasks  int      // tasks dropped because their id was already on the board
	RetitledColumns int
	AddedColumns    int
	MergedColumns   int // duplicate persisted column ids folded into the first
	Reordered       bool
}

// Changed reports whether the reconciled board differs from the input.
func (r ReconcileReport) Changed() bool {
	return r.Relocated > 0 || len(r.DroppedColumns) > 0 || r.DuplicateTasks > 0 ||
		r.RetitledColumns > 0 || r.AddedColumns > 0 || r.MergedColumns > 0 || r.Reordered
}

// Reconcile adapts a loaded board to the configured column set. Configured
// order and titles win. Tasks of columns that are no longer configured are
// appended to the first configured column. Only the first occurrence of a
// task id is kept.
func Reconcile(b *Board, cs ColumnSet) (*Board, ReconcileReport) {
	var rep ReconcileReport

	byID := make(map[string]Column, len(b.Columns))
	for _, c := range b.Columns {
		prev, dup := byID[c.ID]
		if !dup {
			byID[c.ID] = c
			continue
		}
		rep.MergedColumns++
		merged := make([]Task, 0, len(prev.Tasks)+len(c.Tasks))
		merged = append(merged, prev.Tasks...)
		prev.Tasks = append(merged, c.Tasks...)
		byID[c.ID] = prev
	}

	seen := make(map[string]struct{})
	keep := func(tasks []Task) []Task {
		out := make([]Task, 0, len(tasks))
		for _, t := range tasks {
			if _, dup := seen[t.ID]; dup {
				rep.DuplicateTasks++
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
		return out
	}

	out := &Board{Columns: make([]Column, len(cs.specs))}
	configured := make(map[string]struct{}, len(cs.specs))
	for i, s := range cs.specs {
		configured[s.ID] = struct{}{}
		c, ok := byID[s.ID]
		if !ok {
			rep.AddedColumns++
		} else if c.Title != s.Title {
			rep.RetitledColumns++
		}
		out.Columns[i] = Column{ID: s.ID, Title: s.Title, Tasks: keep(c.Tasks)}
	}

	if !rep.Changed() && !sameOrder(b, cs) {
		rep.Reordered = true
	}

	for _, c := range b.Columns {
		if _, ok := configured[c.ID]; ok {
			continue
		}
		if slices.Contains(rep.DroppedColumns, c.ID) {
			continue
		}
		c = byID[c.ID]
		rep.DroppedColumns = append(rep.DroppedColumns, c.ID)
		moved := keep(c.Tasks)
		rep.Relocated += len(moved)
		out.Columns[0].Tasks = append(out.Columns[0].Tasks, moved...)
	}

	return out, rep
}

func sameOrder(b *Board, cs ColumnSet) bool {
	if len(b.Columns) != len(cs.specs) {
		return false
	}
	for i, c := range b.Columns {
		if c.ID != cs.specs[i].ID {
			return false
		}
	}
	return true
}
