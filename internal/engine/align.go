package engine

import (
	"sort"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/geometry"
)

type AlignEdge string

const (
	AlignLeft    AlignEdge = "left"
	AlignCenterX AlignEdge = "centerX"
	AlignRight   AlignEdge = "right"
	AlignTop     AlignEdge = "top"
	AlignCenterY AlignEdge = "centerY"
	AlignBottom  AlignEdge = "bottom"
)

// ParseAlignEdge accepts the canonical names plus the "center" and "middle"
// aliases used by toolbars.
func ParseAlignEdge(s string) (AlignEdge, bool) {
	switch s {
	case "center":
		return AlignCenterX, true
	case "middle":
		return AlignCenterY, true
	}
	switch e := AlignEdge(s); e {
	case AlignLeft, AlignCenterX, AlignRight, AlignTop, AlignCenterY, AlignBottom:
		return e, true
	}
	return "", false
}

type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case Horizontal, Vertical:
		return d, true
	}
	return "", false
}

// AlignShapes moves the shapes so the chosen edge (or center) of each
// matches that of their collective bounding box. Only position changes.
// At least two existing shapes are required.
func (e *Engine) AlignShapes(ids []string, edge AlignEdge) bool {
	targets := e.resolve(ids)
	if len(targets) < 2 {
		return false
	}
	boxes := make([]geometry.Rect, len(targets))
	for i, id := range targets {
		boxes[i] = e.shapes[id].Bounds()
	}
	all := geometry.Bounds(boxes...)

	patches := make([]shapePatch, 0, len(targets))
	for i, id := range targets {
		s, b := e.shapes[id], boxes[i]
		x, y := s.X, s.Y
		switch edge {
		case AlignLeft:
			x = all.Left()
		case AlignCenterX:
			x = all.CenterX() - b.Width/2
		case AlignRight:
			x = all.Right() - b.Width
		case AlignTop:
			y = all.Top()
		case AlignCenterY:
			y = all.CenterY() - b.Height/2
		case AlignBottom:
			y = all.Bottom() - b.Height
		default:
			return false
		}
		patches = append(patches, shapePatch{id: id, patch: document.Position(x, y)})
	}
	return e.patchMany("align "+string(edge), patches)
}

// DistributeShapes spaces the shapes evenly along an axis. The outermost
// shapes stay put; the ones between them are moved so every gap is equal.
// At least three existing shapes are required.
func (e *Engine) DistributeShapes(ids []string, dir Direction) bool {
	targets := e.resolve(ids)
	if len(targets) < 3 {
		return false
	}
	if dir != Horizontal && dir != Vertical {
		return false
	}

	type item struct {
		id   string
		lead float64
		size float64
	}
	items := make([]item, len(targets))
	for i, id := range targets {
		b := e.shapes[id].Bounds()
		if dir == Horizontal {
			items[i] = item{id: id, lead: b.Left(), size: b.Width}
		} else {
			items[i] = item{id: id, lead: b.Top(), size: b.Height}
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].lead < items[j].lead })

	first, last := items[0], items[len(items)-1]
	span := last.lead + last.size - first.lead
	total := 0.0
	for _, it := range items {
		total += it.size
	}
	gap := (span - total) / float64(len(items)-1)

	patches := make([]shapePatch, 0, len(items)-2)
	pos := first.lead + first.size + gap
	for _, it := range items[1 : len(items)-1] {
		s := e.shapes[it.id]
		x, y := s.X, s.Y
		if dir == Horizontal {
			x = pos
		} else {
			y = pos
		}
		patches = append(patches, shapePatch{id: it.id, patch: document.Position(x, y)})
		pos += it.size + gap
	}
	return e.patchMany("distribute "+string(dir), patches)
}
