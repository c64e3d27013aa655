package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/session"
)

func newState() *DocumentState {
	return NewDocumentState(session.New("canvas_1", "Board", session.Config{}))
}

func rect(id string, x, y float64) document.Shape {
	s := document.NewShape(document.KindRectangle, x, y, 50, 50)
	s.ID = id
	return s
}

func apply(t *testing.T, ds *DocumentState, op Operation) Result {
	t.Helper()
	applied, err := ds.ApplyOperation("user_a", op)
	require.NoError(t, err)
	return applied.Result
}

func ptr[T any](v T) *T { return &v }

func TestApplyCreateAndUpdate(t *testing.T) {
	ds := newState()

	applied, err := ds.ApplyOperation("user_a", Operation{
		ID:     "op1",
		Type:   OpShapeCreate,
		Shapes: []document.Shape{rect("a", 0, 0), rect("b", 100, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), applied.ServerSeq)
	assert.Equal(t, []string{"a", "b"}, applied.Result.IDs)
	require.NotNil(t, applied.Document)
	assert.Len(t, applied.Document.Shapes, 2)

	apply(t, ds, Operation{Type: OpShapeUpdate, ShapeID: "a", Patch: &document.ShapePatch{Fill: ptr("#ff0000")}})

	snap, seq := ds.Snapshot()
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, 2, snap.Version)
	require.Len(t, snap.Shapes, 2)
	assert.Equal(t, "#ff0000", snap.Shapes[0].Fill)
	assert.Equal(t, "user_a", snap.Shapes[0].UpdatedBy)
}

func TestAppliedDocumentMatchesSeq(t *testing.T) {
	ds := newState()

	first, err := ds.ApplyOperation("user_a", Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0)}})
	require.NoError(t, err)
	second, err := ds.ApplyOperation("user_b", Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("b", 100, 0)}})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ServerSeq)
	assert.Len(t, first.Document.Shapes, 1)
	assert.Equal(t, int64(2), second.ServerSeq)
	assert.Len(t, second.Document.Shapes, 2)
	assert.Greater(t, second.Document.Version, first.Document.Version)
}

func TestApplyCreateClampsOpacity(t *testing.T) {
	ds := newState()
	s := rect("a", 0, 0)
	s.Opacity = 5
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{s}})

	snap, _ := ds.Snapshot()
	require.Len(t, snap.Shapes, 1)
	assert.Equal(t, 1.0, snap.Shapes[0].Opacity)
}

func TestApplyRejections(t *testing.T) {
	ds := newState()
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0)}})

	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"unknown type", Operation{Type: "shape.explode"}, ErrUnknownOperation},
		{"empty create", Operation{Type: OpShapeCreate}, ErrInvalidOperation},
		{"duplicate id", Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0)}}, ErrInvalidOperation},
		{"update missing patch", Operation{Type: OpShapeUpdate, ShapeID: "a"}, ErrInvalidOperation},
		{"update missing shape", Operation{Type: OpShapeUpdate, ShapeID: "zz", Patch: &document.ShapePatch{}}, ErrNoEffect},
		{"group one shape", Operation{Type: OpShapeGroup, ShapeIDs: []string{"a"}}, ErrNoEffect},
		{"bad edge", Operation{Type: OpShapeAlign, ShapeIDs: []string{"a"}, Edge: "diagonal"}, ErrInvalidOperation},
		{"bad z-order", Operation{Type: OpShapeZOrder, ShapeIDs: []string{"a"}, ZOrder: "sideways"}, ErrInvalidOperation},
		{"redo at tip", Operation{Type: OpHistoryRedo}, ErrNoEffect},
		{"bad color", Operation{Type: OpColorSet, Color: &document.ColorToken{Name: "Brand", Value: "#12"}}, ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ds.ApplyOperation("user_a", tt.op)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, seq := ds.Snapshot()
	assert.Equal(t, int64(1), seq, "rejected operations do not advance the sequence")
}

func TestApplyArrangeAndHistory(t *testing.T) {
	ds := newState()
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0), rect("b", 100, 40), rect("c", 300, 80)}})

	apply(t, ds, Operation{Type: OpShapeAlign, ShapeIDs: []string{"a", "b", "c"}, Edge: "top"})
	apply(t, ds, Operation{Type: OpShapeDistrib, ShapeIDs: []string{"a", "b", "c"}, Direction: "horizontal"})
	snap, _ := ds.Snapshot()
	byID := map[string]document.Shape{}
	for _, s := range snap.Shapes {
		byID[s.ID] = s
	}
	assert.Equal(t, 0.0, byID["c"].Y)
	assert.Equal(t, 150.0, byID["b"].X)

	apply(t, ds, Operation{Type: OpShapeZOrder, ShapeIDs: []string{"a"}, ZOrder: ZFront})
	snap, _ = ds.Snapshot()
	assert.Equal(t, "a", snap.Shapes[len(snap.Shapes)-1].ID)

	apply(t, ds, Operation{Type: OpHistoryUndo})
	apply(t, ds, Operation{Type: OpHistoryUndo})
	snap, _ = ds.Snapshot()
	for _, s := range snap.Shapes {
		if s.ID == "b" {
			assert.Equal(t, 100.0, s.X)
		}
	}
	apply(t, ds, Operation{Type: OpHistoryRedo})
}

func TestApplyGroupDuplicateDelete(t *testing.T) {
	ds := newState()
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0), rect("b", 100, 0)}})

	res := apply(t, ds, Operation{Type: OpShapeGroup, ShapeIDs: []string{"a", "b"}, Name: "Pair"})
	require.Len(t, res.IDs, 1)
	gid := res.IDs[0]

	apply(t, ds, Operation{Type: OpShapeUngroup, GroupID: gid})

	res = apply(t, ds, Operation{Type: OpShapeDuplicate, ShapeIDs: []string{"a"}})
	require.Len(t, res.IDs, 1)
	copyID := res.IDs[0]

	res = apply(t, ds, Operation{Type: OpShapeDelete, ShapeID: copyID, ShapeIDs: []string{"b"}})
	assert.ElementsMatch(t, []string{copyID, "b"}, res.IDs)

	snap, _ := ds.Snapshot()
	require.Len(t, snap.Shapes, 1)
	assert.Empty(t, snap.Groups)
}

func TestApplyMoveSnaps(t *testing.T) {
	ds := newState()
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("anchor", 100, 300), rect("moving", 0, 0)}})

	res := apply(t, ds, Operation{Type: OpShapeMove, ShapeID: "moving", X: ptr(103.0), Y: ptr(0.0)})
	require.NotEmpty(t, res.Guides)

	snap, _ := ds.Snapshot()
	for _, s := range snap.Shapes {
		if s.ID == "moving" {
			assert.Equal(t, 100.0, s.X)
		}
	}
}

func TestApplyComponents(t *testing.T) {
	ds := newState()
	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 10, 20)}})

	res := apply(t, ds, Operation{Type: OpComponentCreate, ShapeIDs: []string{"a"}, Name: "Card"})
	require.Len(t, res.IDs, 1)

	res = apply(t, ds, Operation{Type: OpComponentInstantiate, ComponentID: res.IDs[0], X: ptr(300.0), Y: ptr(400.0)})
	require.Len(t, res.IDs, 1)

	snap, _ := ds.Snapshot()
	require.Len(t, snap.Components, 1)
	assert.Equal(t, "Card", snap.Components[0].Name)
	require.Len(t, snap.Shapes, 2)

	_, err := ds.ApplyOperation("user_a", Operation{Type: OpComponentCreate, Name: "Empty"})
	assert.ErrorIs(t, err, ErrNoEffect)
}

func TestApplyTokens(t *testing.T) {
	ds := newState()

	res := apply(t, ds, Operation{Type: OpColorSet, Color: &document.ColorToken{Name: "Brand", Value: "#4f46e5"}})
	colorID := res.IDs[0]
	apply(t, ds, Operation{Type: OpColorSet, Color: &document.ColorToken{ID: colorID, Name: "Brand", Value: "navy"}})

	res = apply(t, ds, Operation{Type: OpStyleSet, Style: &document.TextStyle{Name: "Body", FontSize: 16, FontFamily: "Inter"}})
	styleID := res.IDs[0]

	snap, _ := ds.Snapshot()
	require.Len(t, snap.Colors, 1)
	assert.Equal(t, "navy", snap.Colors[0].Value)
	require.Len(t, snap.Styles, 1)

	apply(t, ds, Operation{Type: OpColorDelete, TokenID: colorID})
	apply(t, ds, Operation{Type: OpStyleDelete, TokenID: styleID})
	_, err := ds.ApplyOperation("user_a", Operation{Type: OpStyleDelete, TokenID: styleID})
	assert.ErrorIs(t, err, ErrNoEffect)

	snap, _ = ds.Snapshot()
	assert.Empty(t, snap.Colors)
	assert.Empty(t, snap.Styles)
}

func TestTakeDirty(t *testing.T) {
	ds := newState()
	_, ok := ds.TakeDirty()
	assert.False(t, ok)

	apply(t, ds, Operation{Type: OpShapeCreate, Shapes: []document.Shape{rect("a", 0, 0)}})
	snap, ok := ds.TakeDirty()
	require.True(t, ok)
	assert.Len(t, snap.Shapes, 1)

	_, ok = ds.TakeDirty()
	assert.False(t, ok)

	ds.MarkDirty()
	_, ok = ds.TakeDirty()
	assert.True(t, ok)
}
