package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/designsurface/internal/geometry"
)

func rect(x, y, w, h float64) geometry.Rect {
	return geometry.Rect{X: x, Y: y, Width: w, Height: h}
}

func TestComputeSnapsLeftEdge(t *testing.T) {
	e := NewEngine(5)
	moving := rect(103, 0, 50, 50)
	res := e.Compute(moving, []Target{{ID: "a", Bounds: rect(100, 300, 50, 50)}})

	require.Len(t, res.Guides, 1)
	g := res.Guides[0]
	assert.Equal(t, Vertical, g.Orientation)
	assert.Equal(t, LeftLeft, g.Relation)
	assert.Equal(t, "a", g.TargetID)
	assert.Equal(t, 100.0, g.Position)
	assert.Equal(t, 0.0, g.Start)
	assert.Equal(t, 350.0, g.End)

	assert.True(t, res.X.Snapped)
	assert.Equal(t, 100.0, res.X.Position)
	assert.Equal(t, -3.0, res.X.Offset)
	assert.False(t, res.Y.Snapped)
	assert.Equal(t, rect(100, 0, 50, 50), res.Apply(moving))
}

func TestComputeOutsideThreshold(t *testing.T) {
	e := NewEngine(5)
	res := e.Compute(rect(103, 0, 50, 50), []Target{{ID: "far", Bounds: rect(200, 300, 50, 50)}})
	assert.Empty(t, res.Guides)
	assert.False(t, res.X.Snapped)
	assert.False(t, res.Y.Snapped)
}

func TestComputeFirstMatchWins(t *testing.T) {
	e := NewEngine(5)
	moving := rect(104, 0, 50, 50)

	// The first target is 4px away, the second is an exact match. The first one wins.
	res := e.Compute(moving, []Target{
		{ID: "first", Bounds: rect(100, 400, 80, 50)},
		{ID: "exact", Bounds: rect(104, 800, 50, 50)},
	})
	require.Len(t, res.Guides, 1)
	assert.Equal(t, "first", res.Guides[0].TargetID)
	assert.Equal(t, 100.0, res.X.Position)
}

func TestComputeRelationOrder(t *testing.T) {
	e := NewEngine(5)
	// Same width and left edge 2px off: left-left is checked before right-right.
	res := e.Compute(rect(2, 0, 10, 10), []Target{{ID: "a", Bounds: rect(0, 100, 10, 10)}})
	require.Len(t, res.Guides, 1)
	assert.Equal(t, LeftLeft, res.Guides[0].Relation)
}

func TestComputeBothAxes(t *testing.T) {
	e := NewEngine(5)
	// Moving shape sits just right of the target, with its top 2px below.
	moving := rect(151, 12, 40, 40)
	res := e.Compute(moving, []Target{{ID: "t", Bounds: rect(100, 10, 50, 50)}})

	require.Len(t, res.Guides, 2)
	assert.Equal(t, LeftRight, res.Guides[0].Relation)
	assert.Equal(t, TopTop, res.Guides[1].Relation)
	assert.Equal(t, Horizontal, res.Guides[1].Orientation)
	assert.Equal(t, 100.0, res.Guides[1].Start)
	assert.Equal(t, 191.0, res.Guides[1].End)

	assert.Equal(t, 150.0, res.X.Position)
	assert.Equal(t, 10.0, res.Y.Position)
}

func TestComputeAxesFromDifferentTargets(t *testing.T) {
	e := NewEngine(5)
	moving := rect(0, 0, 20, 20)
	res := e.Compute(moving, []Target{
		{ID: "x", Bounds: rect(1, 500, 20, 20)},
		{ID: "y", Bounds: rect(500, 3, 20, 20)},
	})
	require.Len(t, res.Guides, 2)
	assert.Equal(t, "x", res.Guides[0].TargetID)
	assert.Equal(t, "y", res.Guides[1].TargetID)
}

func TestComputeCenterAlignment(t *testing.T) {
	e := NewEngine(5)
	// Centers line up on X (both 50) while edges are 20px off.
	res := e.Compute(rect(30, 0, 40, 10), []Target{{ID: "c", Bounds: rect(10, 200, 80, 10)}})
	require.Len(t, res.Guides, 1)
	assert.Equal(t, CenterXCenterX, res.Guides[0].Relation)
	assert.Equal(t, 50.0, res.Guides[0].Position)
	assert.Equal(t, 0.0, res.X.Offset)
	assert.True(t, res.X.Snapped)
}

func TestThresholdIsInclusive(t *testing.T) {
	e := NewEngine(5)
	res := e.Compute(rect(105, 0, 10, 10), []Target{{Bounds: rect(100, 100, 30, 10)}})
	assert.True(t, res.X.Snapped)
}

func TestNewEngineDefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewEngine(0).Threshold())
	assert.Equal(t, 8.0, NewEngine(8).Threshold())
}
