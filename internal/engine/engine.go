package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/history"
)

var ErrDuplicateID = errors.New("shape id already exists")

// Engine is the authoritative shape repository of one editing session. It
// owns the shapes, groups, selection and the undo history. Every mutator
// records a history entry; undo and redo replay entries without recording.
//
// Engine is not safe for concurrent use. Callers serialise access.
type Engine struct {
	shapes    map[string]document.Shape
	groups    map[string]document.ShapeGroup
	selection []string
	history   *history.Log

	actor           string
	historyCapacity int
	duplicateOffset float64

	now        func() int64
	newShapeID func() string
	newGroupID func() string
	newEntryID func() string
	log        *slog.Logger
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := defaults()
	for _, opt := range opts {
		opt(e)
	}
	e.shapes = make(map[string]document.Shape)
	e.groups = make(map[string]document.ShapeGroup)
	e.history = history.NewLog(e.historyCapacity)
	return e
}

// SetActor changes the user stamped on subsequent mutations.
func (e *Engine) SetActor(userID string) {
	e.actor = userID
}

func (e *Engine) Actor() string {
	return e.actor
}

// Load replaces the whole document. History and selection are reset.
func (e *Engine) Load(shapes []document.Shape, groups []document.ShapeGroup) {
	e.shapes = make(map[string]document.Shape, len(shapes))
	for _, s := range shapes {
		e.shapes[s.ID] = s.Clone()
	}
	e.groups = make(map[string]document.ShapeGroup, len(groups))
	for _, g := range groups {
		e.groups[g.ID] = g.Clone()
	}
	e.selection = nil
	e.history.Clear()
}

// --- Mutators ---

// Add inserts a shape. An empty id is replaced with a fresh one. Adding an
// id that already exists fails with ErrDuplicateID and leaves the document
// untouched.
func (e *Engine) Add(s document.Shape) (document.Shape, error) {
	prepared, err := e.prepare(s, nil)
	if err != nil {
		return document.Shape{}, err
	}
	e.shapes[prepared.ID] = prepared.Clone()
	e.record(history.ActionCreate, "add", nil, []document.Shape{prepared}, nil, nil)
	return prepared, nil
}

// AddMany inserts all shapes as one undo step, or none of them when any
// fails to validate or collides.
func (e *Engine) AddMany(shapes []document.Shape) ([]document.Shape, error) {
	if len(shapes) == 0 {
		return nil, nil
	}
	pending := make(map[string]bool, len(shapes))
	prepared := make([]document.Shape, 0, len(shapes))
	for _, s := range shapes {
		p, err := e.prepare(s, pending)
		if err != nil {
			return nil, err
		}
		pending[p.ID] = true
		prepared = append(prepared, p)
	}
	for _, p := range prepared {
		e.shapes[p.ID] = p.Clone()
	}
	e.record(history.ActionCreate, "add", nil, prepared, nil, nil)
	return prepared, nil
}

// prepare assigns an id, fills defaults and validates a shape for insertion.
func (e *Engine) prepare(s document.Shape, pending map[string]bool) (document.Shape, error) {
	s = s.Clone()
	if s.ID == "" {
		s.ID = e.newShapeID()
	}
	if _, exists := e.shapes[s.ID]; exists || pending[s.ID] {
		return document.Shape{}, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}
	if err := s.Validate(); err != nil {
		return document.Shape{}, fmt.Errorf("shape %s: %w", s.ID, err)
	}
	if s.ScaleX == 0 {
		s.ScaleX = 1
	}
	if s.ScaleY == 0 {
		s.ScaleY = 1
	}
	s.Opacity = document.ClampOpacity(s.Opacity)
	// Membership is only granted through GroupShapes.
	s.GroupID = ""

	now := e.now()
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.CreatedBy == "" {
		s.CreatedBy = e.actor
	}
	s.UpdatedBy = e.actor
	return s, nil
}

// Update merges patch into the shape. It returns false, recording nothing,
// when the shape does not exist.
func (e *Engine) Update(id string, patch document.ShapePatch) bool {
	cur, ok := e.shapes[id]
	if !ok {
		e.log.Debug("update ignored: shape not found", "shape", id)
		return false
	}
	before := cur.Clone()
	after := cur.Clone()
	patch.Apply(&after)
	e.stamp(&after)

	e.shapes[id] = after.Clone()
	e.record(history.ActionUpdate, "update", []document.Shape{before}, []document.Shape{after}, nil, nil)
	return true
}

type shapePatch struct {
	id    string
	patch document.ShapePatch
}

// patchMany applies several patches as one batch entry. Unknown ids are skipped.
func (e *Engine) patchMany(label string, patches []shapePatch) bool {
	var before, after []document.Shape
	for _, p := range patches {
		cur, ok := e.shapes[p.id]
		if !ok {
			continue
		}
		next := cur.Clone()
		p.patch.Apply(&next)
		e.stamp(&next)

		before = append(before, cur.Clone())
		after = append(after, next.Clone())
		e.shapes[p.id] = next
	}
	if len(after) == 0 {
		return false
	}
	e.record(history.ActionBatch, label, before, after, nil, nil)
	return true
}

// Delete removes one shape.
func (e *Engine) Delete(id string) bool {
	return len(e.DeleteMany([]string{id})) == 1
}

// DeleteMany removes every existing shape in ids as a single undo step and
// returns the ids actually removed. Deleted shapes leave their groups; a
// group left without members is removed.
func (e *Engine) DeleteMany(ids []string) []string {
	targets := e.resolve(ids)
	if len(targets) == 0 {
		return nil
	}

	var before []document.Shape
	removed := make(map[string]bool, len(targets))
	touched := make(map[string]bool)
	for _, id := range targets {
		s := e.shapes[id]
		before = append(before, s.Clone())
		removed[id] = true
		if s.GroupID != "" {
			touched[s.GroupID] = true
		}
	}

	var groupsBefore, groupsAfter []document.ShapeGroup
	for _, gid := range sortedKeys(touched) {
		g, ok := e.groups[gid]
		if !ok {
			continue
		}
		groupsBefore = append(groupsBefore, g.Clone())
		var members []string
		for _, m := range g.Members {
			if !removed[m] {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			delete(e.groups, gid)
			continue
		}
		g.Members = members
		e.groups[gid] = g
		groupsAfter = append(groupsAfter, g.Clone())
	}

	for _, id := range targets {
		delete(e.shapes, id)
	}
	e.deselect(removed)
	e.record(history.ActionDelete, "delete", before, nil, groupsBefore, groupsAfter)
	return targets
}

// --- History ---

// Undo reverts the most recent mutation. It returns false when there is
// nothing to undo.
func (e *Engine) Undo() bool {
	return e.history.Undo(replayTarget{e})
}

// Redo re-applies the most recently undone mutation.
func (e *Engine) Redo() bool {
	return e.history.Redo(replayTarget{e})
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// History returns a copy of the recorded entries, oldest first.
func (e *Engine) History() []history.Entry {
	return e.history.Entries()
}

func (e *Engine) record(action history.Action, label string, before, after []document.Shape, groupsBefore, groupsAfter []document.ShapeGroup) {
	e.history.Push(history.Entry{
		ID:           e.newEntryID(),
		Action:       action,
		Label:        label,
		Before:       before,
		After:        after,
		GroupsBefore: groupsBefore,
		GroupsAfter:  groupsAfter,
		Timestamp:    e.now(),
		UserID:       e.actor,
	})
}

func (e *Engine) stamp(s *document.Shape) {
	s.UpdatedAt = e.now()
	s.UpdatedBy = e.actor
}

// replayTarget lets the history log write to the engine without exposing
// unrecorded mutators.
type replayTarget struct{ e *Engine }

func (t replayTarget) PutShape(s document.Shape) { t.e.shapes[s.ID] = s }

func (t replayTarget) RemoveShape(id string) {
	delete(t.e.shapes, id)
	t.e.deselect(map[string]bool{id: true})
}

func (t replayTarget) PutGroup(g document.ShapeGroup) { t.e.groups[g.ID] = g }
func (t replayTarget) RemoveGroup(id string)          { delete(t.e.groups, id) }

// --- Queries ---

// Shape returns a copy of the shape with the given id.
func (e *Engine) Shape(id string) (document.Shape, bool) {
	s, ok := e.shapes[id]
	if !ok {
		return document.Shape{}, false
	}
	return s.Clone(), true
}

// Shapes returns a copy of the full shape map.
func (e *Engine) Shapes() map[string]document.Shape {
	out := make(map[string]document.Shape, len(e.shapes))
	for id, s := range e.shapes {
		out[id] = s.Clone()
	}
	return out
}

// ShapesByZ returns every shape in paint order, back to front.
func (e *Engine) ShapesByZ() []document.Shape {
	out := make([]document.Shape, 0, len(e.shapes))
	for _, s := range e.shapes {
		out = append(out, s.Clone())
	}
	SortByZ(out)
	return out
}

// SortByZ orders shapes back to front. Ties fall back to creation time, then id.
func SortByZ(shapes []document.Shape) {
	sort.Slice(shapes, func(i, j int) bool {
		a, b := shapes[i], shapes[j]
		if a.ZIndex != b.ZIndex {
			return a.ZIndex < b.ZIndex
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}

func (e *Engine) Len() int {
	return len(e.shapes)
}

// Group returns a copy of the group with the given id.
func (e *Engine) Group(id string) (document.ShapeGroup, bool) {
	g, ok := e.groups[id]
	if !ok {
		return document.ShapeGroup{}, false
	}
	return g.Clone(), true
}

// Groups returns every group ordered by id.
func (e *Engine) Groups() []document.ShapeGroup {
	out := make([]document.ShapeGroup, 0, len(e.groups))
	for _, id := range sortedKeys(e.groups) {
		out = append(out, e.groups[id].Clone())
	}
	return out
}

// resolve returns the existing ids among ids, deduplicated, in input order.
func (e *Engine) resolve(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := e.shapes[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
