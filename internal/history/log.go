package history

import (
	"github.com/inamate/designsurface/internal/document"
)

// DefaultCapacity is the number of entries kept before the oldest is evicted.
const DefaultCapacity = 50

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionBatch  Action = "batch"
)

// Entry is one reversible mutation. Before holds the shapes as they were
// (absent for create), After the shapes as they are now (absent for delete).
// Group records touched by the mutation are captured the same way.
type Entry struct {
	ID           string                `json:"id"`
	Action       Action                `json:"action"`
	Label        string                `json:"label,omitempty"`
	Before       []document.Shape      `json:"before,omitempty"`
	After        []document.Shape      `json:"after,omitempty"`
	GroupsBefore []document.ShapeGroup `json:"groupsBefore,omitempty"`
	GroupsAfter  []document.ShapeGroup `json:"groupsAfter,omitempty"`
	Timestamp    int64                 `json:"timestamp"`
	UserID       string                `json:"userId"`
}

// Target is the repository an entry is replayed against.
type Target interface {
	PutShape(s document.Shape)
	RemoveShape(id string)
	PutGroup(g document.ShapeGroup)
	RemoveGroup(id string)
}

// Log is a linear undo/redo history. pointer indexes the newest applied
// entry; entries after it form the redo tail. The Log is not safe for
// concurrent use.
type Log struct {
	entries  []Entry
	pointer  int
	capacity int
}

// NewLog creates a history log; a non-positive capacity selects DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{pointer: -1, capacity: capacity}
}

// Push records an applied mutation. Any redo tail is discarded and the
// oldest entry is evicted when the log is over capacity. The entry's
// snapshots are copied.
func (l *Log) Push(e Entry) {
	l.entries = append(l.entries[:l.pointer+1], copyEntry(e))
	l.pointer++

	if len(l.entries) > l.capacity {
		excess := len(l.entries) - l.capacity
		l.entries = append([]Entry(nil), l.entries[excess:]...)
		l.pointer -= excess
	}
}

// Undo reverts the entry at the pointer. It returns false when there is
// nothing to undo.
func (l *Log) Undo(t Target) bool {
	if l.pointer < 0 {
		return false
	}
	e := l.entries[l.pointer]

	switch e.Action {
	case ActionCreate:
		removeShapes(t, e.After)
	case ActionDelete:
		putShapes(t, e.Before)
	case ActionUpdate:
		putShapes(t, e.Before)
	case ActionBatch:
		removeShapes(t, missing(e.After, e.Before))
		putShapes(t, e.Before)
	}
	swapGroups(t, e.GroupsAfter, e.GroupsBefore)

	l.pointer--
	return true
}

// Redo re-applies the entry after the pointer. It returns false when the
// pointer is already at the newest entry.
func (l *Log) Redo(t Target) bool {
	if l.pointer >= len(l.entries)-1 {
		return false
	}
	e := l.entries[l.pointer+1]

	switch e.Action {
	case ActionCreate:
		putShapes(t, e.After)
	case ActionDelete:
		removeShapes(t, e.Before)
	case ActionUpdate:
		putShapes(t, e.After)
	case ActionBatch:
		removeShapes(t, missing(e.Before, e.After))
		putShapes(t, e.After)
	}
	swapGroups(t, e.GroupsBefore, e.GroupsAfter)

	l.pointer++
	return true
}

func (l *Log) CanUndo() bool { return l.pointer >= 0 }
func (l *Log) CanRedo() bool { return l.pointer < len(l.entries)-1 }
func (l *Log) Len() int      { return len(l.entries) }
func (l *Log) Capacity() int { return l.capacity }

// Pointer returns the index of the newest applied entry, -1 when none.
func (l *Log) Pointer() int { return l.pointer }

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = copyEntry(e)
	}
	return out
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.entries = nil
	l.pointer = -1
}

func putShapes(t Target, shapes []document.Shape) {
	for _, s := range shapes {
		t.PutShape(s.Clone())
	}
}

func removeShapes(t Target, shapes []document.Shape) {
	for _, s := range shapes {
		t.RemoveShape(s.ID)
	}
}

// swapGroups removes groups that only exist in from and restores to.
func swapGroups(t Target, from, to []document.ShapeGroup) {
	keep := make(map[string]bool, len(to))
	for _, g := range to {
		keep[g.ID] = true
	}
	for _, g := range from {
		if !keep[g.ID] {
			t.RemoveGroup(g.ID)
		}
	}
	for _, g := range to {
		t.PutGroup(g.Clone())
	}
}

// missing returns the shapes in a whose ids are absent from b.
func missing(a, b []document.Shape) []document.Shape {
	ids := make(map[string]bool, len(b))
	for _, s := range b {
		ids[s.ID] = true
	}
	var out []document.Shape
	for _, s := range a {
		if !ids[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func copyEntry(e Entry) Entry {
	out := e
	out.Before = cloneShapes(e.Before)
	out.After = cloneShapes(e.After)
	out.GroupsBefore = cloneGroups(e.GroupsBefore)
	out.GroupsAfter = cloneGroups(e.GroupsAfter)
	return out
}

func cloneShapes(shapes []document.Shape) []document.Shape {
	if shapes == nil {
		return nil
	}
	out := make([]document.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}

func cloneGroups(groups []document.ShapeGroup) []document.ShapeGroup {
	if groups == nil {
		return nil
	}
	out := make([]document.ShapeGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
