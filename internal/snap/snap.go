// Package snap computes alignment guides while a shape is being dragged.
//
// The moving shape's edges and center are compared with every target's on
// both axes. Per axis five relations are checked, in this order:
//
//	X: left-left, right-right, centerX-centerX, left-right, right-left
//	Y: top-top, bottom-bottom, centerY-centerY, top-bottom, bottom-top
//
// Targets are visited in the order given. The first relation on an axis whose
// distance is within the threshold wins; later candidates on that axis are
// ignored even when closer. This keeps results stable while dragging.
package snap

import (
	"math"

	"github.com/inamate/designsurface/internal/geometry"
)

const DefaultThreshold = 5.0

type Orientation string

const (
	// Vertical guides are drawn for X-axis matches.
	Vertical Orientation = "vertical"
	// Horizontal guides are drawn for Y-axis matches.
	Horizontal Orientation = "horizontal"
)

type Relation string

const (
	LeftLeft       Relation = "left-left"
	RightRight     Relation = "right-right"
	CenterXCenterX Relation = "centerX-centerX"
	LeftRight      Relation = "left-right"
	RightLeft      Relation = "right-left"
	TopTop         Relation = "top-top"
	BottomBottom   Relation = "bottom-bottom"
	CenterYCenterY Relation = "centerY-centerY"
	TopBottom      Relation = "top-bottom"
	BottomTop      Relation = "bottom-top"
)

// Target is a candidate shape the moving shape can align with.
type Target struct {
	ID     string
	Bounds geometry.Rect
}

// Guide is a line to render while the snap is active. Position is the x of a
// vertical guide or the y of a horizontal one; Start/End span the union of
// both shapes on the perpendicular axis.
type Guide struct {
	Orientation Orientation `json:"orientation"`
	Relation    Relation    `json:"relation"`
	TargetID    string      `json:"targetId"`
	Position    float64     `json:"position"`
	Start       float64     `json:"start"`
	End         float64     `json:"end"`
}

// Axis is the correction for one axis. Position is the corrected leading
// coordinate (x or y) of the moving shape and Offset the delta to apply.
type Axis struct {
	Snapped  bool    `json:"snapped"`
	Position float64 `json:"position"`
	Offset   float64 `json:"offset"`
}

type Result struct {
	Guides []Guide `json:"guides"`
	X      Axis    `json:"x"`
	Y      Axis    `json:"y"`
}

// Engine holds the snapping threshold in canvas pixels.
type Engine struct {
	threshold float64
}

// NewEngine returns an engine; a non-positive threshold selects DefaultThreshold.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold}
}

func (e *Engine) Threshold() float64 {
	return e.threshold
}

type relation struct {
	name   Relation
	moving func(geometry.Rect) float64
	target func(geometry.Rect) float64
}

var xRelations = []relation{
	{LeftLeft, geometry.Rect.Left, geometry.Rect.Left},
	{RightRight, geometry.Rect.Right, geometry.Rect.Right},
	{CenterXCenterX, geometry.Rect.CenterX, geometry.Rect.CenterX},
	{LeftRight, geometry.Rect.Left, geometry.Rect.Right},
	{RightLeft, geometry.Rect.Right, geometry.Rect.Left},
}

var yRelations = []relation{
	{TopTop, geometry.Rect.Top, geometry.Rect.Top},
	{BottomBottom, geometry.Rect.Bottom, geometry.Rect.Bottom},
	{CenterYCenterY, geometry.Rect.CenterY, geometry.Rect.CenterY},
	{TopBottom, geometry.Rect.Top, geometry.Rect.Bottom},
	{BottomTop, geometry.Rect.Bottom, geometry.Rect.Top},
}

// Compute returns the guides and per-axis corrections for moving against targets.
func (e *Engine) Compute(moving geometry.Rect, targets []Target) Result {
	var res Result
	var xGuide, yGuide *Guide

	for _, t := range targets {
		if xGuide == nil {
			for _, rel := range xRelations {
				edge := rel.target(t.Bounds)
				if math.Abs(rel.moving(moving)-edge) > e.threshold {
					continue
				}
				offset := edge - rel.moving(moving)
				res.X = Axis{Snapped: true, Position: moving.X + offset, Offset: offset}
				xGuide = &Guide{
					Orientation: Vertical,
					Relation:    rel.name,
					TargetID:    t.ID,
					Position:    edge,
					Start:       min(moving.Top(), t.Bounds.Top()),
					End:         max(moving.Bottom(), t.Bounds.Bottom()),
				}
				break
			}
		}
		if yGuide == nil {
			for _, rel := range yRelations {
				edge := rel.target(t.Bounds)
				if math.Abs(rel.moving(moving)-edge) > e.threshold {
					continue
				}
				offset := edge - rel.moving(moving)
				res.Y = Axis{Snapped: true, Position: moving.Y + offset, Offset: offset}
				yGuide = &Guide{
					Orientation: Horizontal,
					Relation:    rel.name,
					TargetID:    t.ID,
					Position:    edge,
					Start:       min(moving.Left(), t.Bounds.Left()),
					End:         max(moving.Right(), t.Bounds.Right()),
				}
				break
			}
		}
		if xGuide != nil && yGuide != nil {
			break
		}
	}

	if xGuide != nil {
		res.Guides = append(res.Guides, *xGuide)
	}
	if yGuide != nil {
		res.Guides = append(res.Guides, *yGuide)
	}
	return res
}

// Apply returns moving translated by the result's corrections.
func (r Result) Apply(moving geometry.Rect) geometry.Rect {
	moving.X += r.X.Offset
	moving.Y += r.Y.Offset
	return moving
}
