package engine

import (
	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/history"
)

// BringToFront moves the shapes above every other shape, keeping the order
// they were given in.
func (e *Engine) BringToFront(ids []string) bool {
	targets := e.resolve(ids)
	if len(targets) == 0 {
		return false
	}
	top := e.maxZ()
	patches := make([]shapePatch, len(targets))
	for i, id := range targets {
		patches[i] = shapePatch{id: id, patch: document.Z(top + 1 + i)}
	}
	return e.patchMany("bring to front", patches)
}

// SendToBack moves the shapes below every other shape. Z values may go
// negative.
func (e *Engine) SendToBack(ids []string) bool {
	targets := e.resolve(ids)
	if len(targets) == 0 {
		return false
	}
	bottom := e.minZ() - len(targets)
	patches := make([]shapePatch, len(targets))
	for i, id := range targets {
		patches[i] = shapePatch{id: id, patch: document.Z(bottom + i)}
	}
	return e.patchMany("send to back", patches)
}

// BringForward raises each shape by one step.
func (e *Engine) BringForward(ids []string) bool {
	return e.shiftZ("bring forward", ids, 1)
}

// SendBackward lowers each shape by one step, never below zero. A shape
// already below zero keeps its index.
func (e *Engine) SendBackward(ids []string) bool {
	return e.shiftZ("send backward", ids, -1)
}

func (e *Engine) shiftZ(label string, ids []string, delta int) bool {
	targets := e.resolve(ids)
	if len(targets) == 0 {
		return false
	}
	patches := make([]shapePatch, len(targets))
	for i, id := range targets {
		cur := e.shapes[id].ZIndex
		z := cur + delta
		if delta < 0 {
			z = max(z, min(cur, 0))
		}
		patches[i] = shapePatch{id: id, patch: document.Z(z)}
	}
	return e.patchMany(label, patches)
}

// DuplicateShapes copies the shapes with fresh ids, shifted by the duplicate
// offset and stacked above everything. The copies become the selection.
func (e *Engine) DuplicateShapes(ids []string) []string {
	sources := e.resolve(ids)
	if len(sources) == 0 {
		return nil
	}
	top := e.maxZ()
	now := e.now()

	copies := make([]document.Shape, 0, len(sources))
	newIDs := make([]string, 0, len(sources))
	for i, id := range sources {
		c := e.shapes[id].Clone()
		c.ID = e.newShapeID()
		c.Name += DuplicateNameSuffix
		c.X += e.duplicateOffset
		c.Y += e.duplicateOffset
		c.ZIndex = top + 1 + i
		c.GroupID = ""
		c.CreatedAt, c.UpdatedAt = now, now
		c.CreatedBy, c.UpdatedBy = e.actor, e.actor

		e.shapes[c.ID] = c.Clone()
		copies = append(copies, c)
		newIDs = append(newIDs, c.ID)
	}

	e.record(history.ActionCreate, "duplicate", nil, copies, nil, nil)
	e.selection = append([]string(nil), newIDs...)
	return newIDs
}

func (e *Engine) maxZ() int {
	top, first := 0, true
	for _, s := range e.shapes {
		if first || s.ZIndex > top {
			top, first = s.ZIndex, false
		}
	}
	return top
}

func (e *Engine) minZ() int {
	bottom, first := 0, true
	for _, s := range e.shapes {
		if first || s.ZIndex < bottom {
			bottom, first = s.ZIndex, false
		}
	}
	return bottom
}
