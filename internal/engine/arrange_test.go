package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/designsurface/internal/document"
)

func zOrder(e *Engine) []string {
	var ids []string
	for _, s := range e.ShapesByZ() {
		ids = append(ids, s.ID)
	}
	return ids
}

func stacked(t *testing.T) *Engine {
	e := newTestEngine()
	for i, id := range []string{"a", "b", "c"} {
		s := rectShape(id, 0, 0, 10, 10)
		s.ZIndex = i
		mustAdd(t, e, s)
	}
	return e
}

func TestBringToFront(t *testing.T) {
	e := stacked(t)
	require.True(t, e.BringToFront([]string{"a"}))
	assert.Equal(t, []string{"b", "c", "a"}, zOrder(e))
	a, _ := e.Shape("a")
	assert.Equal(t, 3, a.ZIndex)

	assert.False(t, e.BringToFront([]string{"missing"}))
}

func TestSendToBackKeepsOrder(t *testing.T) {
	e := stacked(t)
	require.True(t, e.SendToBack([]string{"c", "b"}))
	assert.Equal(t, []string{"c", "b", "a"}, zOrder(e))

	c, _ := e.Shape("c")
	assert.Equal(t, -2, c.ZIndex)
}

func TestForwardBackward(t *testing.T) {
	e := stacked(t)
	require.True(t, e.BringForward([]string{"b"}))
	b, _ := e.Shape("b")
	assert.Equal(t, 2, b.ZIndex)

	require.True(t, e.SendBackward([]string{"a"}))
	a, _ := e.Shape("a")
	assert.Equal(t, 0, a.ZIndex)

	// One entry per call.
	assert.Len(t, e.History(), 5)
}

func TestSendBackwardBelowZero(t *testing.T) {
	e := newTestEngine()
	a := rectShape("a", 0, 0, 10, 10)
	b := rectShape("b", 0, 0, 10, 10)
	b.ZIndex = 1
	mustAdd(t, e, a, b)

	require.True(t, e.SendToBack([]string{"b"}))
	b, _ = e.Shape("b")
	require.Equal(t, -1, b.ZIndex)

	require.True(t, e.SendBackward([]string{"b"}))
	b, _ = e.Shape("b")
	assert.Equal(t, -1, b.ZIndex)
	assert.Equal(t, []string{"b", "a"}, zOrder(e))
}

func TestDuplicateShapes(t *testing.T) {
	e := stacked(t)
	e.SetActor("user_other")

	ids := e.DuplicateShapes([]string{"a", "b"})
	require.Len(t, ids, 2)
	assert.Equal(t, ids, e.Selection())

	a, _ := e.Shape("a")
	cp, ok := e.Shape(ids[0])
	require.True(t, ok)
	assert.NotEqual(t, "a", cp.ID)
	assert.Equal(t, a.X+DefaultDuplicateOffset, cp.X)
	assert.Equal(t, a.Y+DefaultDuplicateOffset, cp.Y)
	assert.Equal(t, a.Name+" copy", cp.Name)
	assert.Equal(t, 3, cp.ZIndex)
	assert.Equal(t, "user_other", cp.CreatedBy)

	cp2, _ := e.Shape(ids[1])
	assert.Equal(t, 4, cp2.ZIndex)

	require.True(t, e.Undo())
	assert.Equal(t, 3, e.Len())
	assert.Empty(t, e.Selection())
}

func TestDuplicateOffsetOption(t *testing.T) {
	e := newTestEngine(WithDuplicateOffset(5))
	mustAdd(t, e, rectShape("a", 10, 10, 1, 1))
	ids := e.DuplicateShapes([]string{"a"})
	cp, _ := e.Shape(ids[0])
	assert.Equal(t, 15.0, cp.X)
}

func TestDuplicateLeavesGroup(t *testing.T) {
	e := stacked(t)
	e.GroupShapes([]string{"a", "b"}, "g")
	ids := e.DuplicateShapes([]string{"a"})
	cp, _ := e.Shape(ids[0])
	assert.Empty(t, cp.GroupID)
}

func TestAlignLeft(t *testing.T) {
	e := newTestEngine()
	a := rectShape("a", 40, 0, 50, 20)
	a.Rotation = 30
	a.ScaleX = 2
	mustAdd(t, e, a, rectShape("b", 10, 50, 30, 30))

	require.True(t, e.AlignShapes([]string{"a", "b"}, AlignLeft))
	got, _ := e.Shape("a")
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 0.0, got.Y)
	assert.Equal(t, 30.0, got.Rotation)
	assert.Equal(t, 2.0, got.ScaleX)
	assert.Equal(t, 50.0, got.Width)
	assert.Len(t, e.History(), 3)
}

func TestAlignEdges(t *testing.T) {
	tests := []struct {
		edge  AlignEdge
		wantA [2]float64
		wantB [2]float64
	}{
		{AlignRight, [2]float64{30, 0}, [2]float64{50, 100}},
		{AlignCenterX, [2]float64{15, 0}, [2]float64{25, 100}},
		{AlignTop, [2]float64{0, 0}, [2]float64{50, 0}},
		{AlignBottom, [2]float64{0, 110}, [2]float64{50, 100}},
		{AlignCenterY, [2]float64{0, 55}, [2]float64{50, 50}},
	}
	for _, tt := range tests {
		t.Run(string(tt.edge), func(t *testing.T) {
			e := newTestEngine()
			// a: (0,0) 50x10, b: (50,100) 30x20; union spans x 0..80, y 0..120.
			mustAdd(t, e, rectShape("a", 0, 0, 50, 10), rectShape("b", 50, 100, 30, 20))
			require.True(t, e.AlignShapes([]string{"a", "b"}, tt.edge))

			a, _ := e.Shape("a")
			b, _ := e.Shape("b")
			assert.Equal(t, tt.wantA, [2]float64{a.X, a.Y})
			assert.Equal(t, tt.wantB, [2]float64{b.X, b.Y})
		})
	}
}

func TestAlignNeedsTwoShapes(t *testing.T) {
	e := newTestEngine()
	mustAdd(t, e, rectShape("a", 0, 0, 1, 1))
	assert.False(t, e.AlignShapes([]string{"a", "missing"}, AlignLeft))
	assert.Len(t, e.History(), 1)
}

func TestDistributeHorizontal(t *testing.T) {
	e := newTestEngine()
	mustAdd(t, e,
		rectShape("a", 0, 0, 50, 50),
		rectShape("b", 300, 0, 50, 50),
		rectShape("c", 100, 0, 50, 50),
	)
	require.True(t, e.DistributeShapes([]string{"a", "b", "c"}, Horizontal))

	c, _ := e.Shape("c")
	assert.Equal(t, 150.0, c.X)
	a, _ := e.Shape("a")
	b, _ := e.Shape("b")
	assert.Equal(t, 0.0, a.X)
	assert.Equal(t, 300.0, b.X)
}

func TestDistributeVertical(t *testing.T) {
	e := newTestEngine()
	mustAdd(t, e,
		rectShape("a", 0, 0, 10, 10),
		rectShape("b", 0, 20, 10, 30),
		rectShape("c", 0, 90, 10, 10),
	)
	// span 100, sizes 50, gap 25: b moves to y=35.
	require.True(t, e.DistributeShapes([]string{"c", "b", "a"}, Vertical))
	b, _ := e.Shape("b")
	assert.Equal(t, 35.0, b.Y)
}

func TestDistributeNeedsThreeShapes(t *testing.T) {
	e := newTestEngine()
	mustAdd(t, e, rectShape("a", 0, 0, 1, 1), rectShape("b", 5, 0, 1, 1))
	assert.False(t, e.DistributeShapes([]string{"a", "b"}, Horizontal))
}

func TestParseAlignEdge(t *testing.T) {
	edge, ok := ParseAlignEdge("middle")
	assert.True(t, ok)
	assert.Equal(t, AlignCenterY, edge)

	_, ok = ParseAlignEdge("diagonal")
	assert.False(t, ok)

	dir, ok := ParseDirection("vertical")
	assert.True(t, ok)
	assert.Equal(t, Vertical, dir)
}

func TestGroupAndUngroup(t *testing.T) {
	e := stacked(t)
	assert.Empty(t, e.GroupShapes([]string{"a"}, ""))

	gid := e.GroupShapes([]string{"a", "b"}, "pair")
	require.NotEmpty(t, gid)
	g, _ := e.Group(gid)
	assert.Equal(t, "pair", g.Name)
	assert.Equal(t, []string{"a", "b"}, g.Members)
	a, _ := e.Shape("a")
	assert.Equal(t, gid, a.GroupID)

	require.True(t, e.UngroupShapes(gid))
	a, _ = e.Shape("a")
	assert.Empty(t, a.GroupID)
	assert.Empty(t, e.Groups())
	assert.False(t, e.UngroupShapes(gid))

	e.Undo()
	a, _ = e.Shape("a")
	assert.Equal(t, gid, a.GroupID)
	assert.Len(t, e.Groups(), 1)
}

func TestRegroupMovesMembers(t *testing.T) {
	e := stacked(t)
	first := e.GroupShapes([]string{"a", "b"}, "")
	second := e.GroupShapes([]string{"b", "c"}, "")

	g1, ok := e.Group(first)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, g1.Members)
	g2, _ := e.Group(second)
	assert.Equal(t, []string{"b", "c"}, g2.Members)

	e.Undo()
	g1, _ = e.Group(first)
	assert.Equal(t, []string{"a", "b"}, g1.Members)
	_, ok = e.Group(second)
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	e := stacked(t)
	e.Select("a")
	assert.Equal(t, []string{"a"}, e.Selection())

	e.ToggleSelect("b")
	e.ToggleSelect("missing")
	assert.Equal(t, []string{"a", "b"}, e.Selection())

	e.ToggleSelect("a")
	assert.Equal(t, []string{"b"}, e.Selection())
	assert.True(t, e.IsSelected("b"))

	e.Select("missing")
	assert.Empty(t, e.Selection())
}

func TestHitTest(t *testing.T) {
	e := newTestEngine()
	back := rectShape("back", 0, 0, 100, 100)
	front := rectShape("front", 50, 50, 100, 100)
	front.ZIndex = 1
	hidden := rectShape("hidden", 0, 0, 200, 200)
	hidden.ZIndex = 2
	hidden.Visible = false
	mustAdd(t, e, back, front, hidden)

	assert.Equal(t, "front", e.HitTest(75, 75))
	assert.Equal(t, "back", e.HitTest(10, 10))
	assert.Equal(t, "", e.HitTest(180, 10))

	// Rotated 90 degrees about its top-left it covers x 280..300, y 0..50.
	rot := rectShape("rot", 300, 0, 50, 20)
	rot.Rotation = 90
	mustAdd(t, e, rot)
	assert.Equal(t, "rot", e.HitTest(290, 25))
	assert.Equal(t, "", e.HitTest(320, 5))
}

func TestSelectionBounds(t *testing.T) {
	e := newTestEngine()
	mustAdd(t, e, rectShape("a", 0, 0, 10, 10), rectShape("b", 20, 30, 10, 10))

	_, ok := e.SelectionBounds()
	assert.False(t, ok)

	e.SetSelection([]string{"a", "b"})
	b, ok := e.SelectionBounds()
	require.True(t, ok)
	assert.InDelta(t, 30.0, b.Width, 1e-9)
	assert.InDelta(t, 40.0, b.Height, 1e-9)
}

func TestSnapTargets(t *testing.T) {
	e := stacked(t)
	e.Update("c", document.ShapePatch{Visible: new(bool)})

	targets := e.SnapTargets("a")
	require.Len(t, targets, 1)
	assert.Equal(t, "b", targets[0].ID)
}
