package engine

import (
	"github.com/inamate/designsurface/internal/geometry"
	"github.com/inamate/designsurface/internal/snap"
)

// HitTest returns the id of the topmost visible, unlocked shape under the
// canvas point, or "" when there is none. Rotation and scale are honoured.
func (e *Engine) HitTest(x, y float64) string {
	shapes := e.ShapesByZ()
	for i := len(shapes) - 1; i >= 0; i-- {
		s := shapes[i]
		if !s.Visible || s.Locked {
			continue
		}
		inv, ok := s.Transform().Invert()
		if !ok {
			continue
		}
		lx, ly := inv.TransformPoint(x, y)
		if lx >= 0 && ly >= 0 && lx <= s.Width && ly <= s.Height {
			return s.ID
		}
	}
	return ""
}

// SelectionBounds returns the rotated envelope of the selected shapes.
// ok is false when nothing is selected.
func (e *Engine) SelectionBounds() (geometry.Rect, bool) {
	if len(e.selection) == 0 {
		return geometry.Rect{}, false
	}
	boxes := make([]geometry.Rect, 0, len(e.selection))
	for _, id := range e.selection {
		s := e.shapes[id]
		local := geometry.Rect{Width: s.Width, Height: s.Height}
		boxes = append(boxes, s.Transform().TransformRect(local))
	}
	return geometry.Bounds(boxes...), true
}

// SnapTargets returns the visible shapes other than exclude, back to front.
func (e *Engine) SnapTargets(exclude ...string) []snap.Target {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []snap.Target
	for _, s := range e.ShapesByZ() {
		if skip[s.ID] || !s.Visible {
			continue
		}
		out = append(out, snap.Target{ID: s.ID, Bounds: s.Bounds()})
	}
	return out
}
