package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShapeIsValid(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			s := NewShape(kind, 0, 0, 40, 20)
			require.NoError(t, s.Validate())
			assert.Equal(t, 1.0, s.ScaleX)
			assert.Equal(t, 1.0, s.Opacity)
			assert.True(t, s.Visible)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		err := Shape{Kind: "hexagon"}.Validate()
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("missing payload", func(t *testing.T) {
		err := Shape{Kind: KindText}.Validate()
		assert.ErrorIs(t, err, ErrPayloadMismatch)
	})

	t.Run("foreign payload", func(t *testing.T) {
		s := NewShape(KindCircle, 0, 0, 10, 10)
		s.Star = &StarProps{NumPoints: 5}
		assert.ErrorIs(t, s.Validate(), ErrPayloadMismatch)
	})
}

func TestCloneIsDeep(t *testing.T) {
	line := NewShape(KindLine, 0, 0, 10, 10)
	cp := line.Clone()
	cp.Line.Points[0] = 99
	assert.Equal(t, 0.0, line.Line.Points[0])

	text := NewShape(KindText, 0, 0, 10, 10)
	tc := text.Clone()
	tc.Text.Content = "changed"
	assert.Empty(t, text.Text.Content)

	assert.Equal(t, line, line.Clone())
}

func TestShapeJSONCarriesKind(t *testing.T) {
	s := NewShape(KindStar, 1, 2, 30, 30)
	s.ID = "shape_1"
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Shape
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindStar, decoded.Kind)
	require.NotNil(t, decoded.Star)
	assert.Equal(t, 5, decoded.Star.NumPoints)
	assert.Nil(t, decoded.Rect)
}

func TestPatchApply(t *testing.T) {
	s := NewShape(KindRectangle, 0, 0, 10, 10)
	name := "Header"
	opacity := 3.0
	p := ShapePatch{Name: &name, Opacity: &opacity, Rect: &RectProps{CornerRadius: 4}, Text: &TextProps{Content: "ignored"}}
	p.Apply(&s)

	assert.Equal(t, "Header", s.Name)
	assert.Equal(t, 1.0, s.Opacity)
	assert.Equal(t, 4.0, s.Rect.CornerRadius)
	assert.Nil(t, s.Text)
	assert.NoError(t, s.Validate())
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, ShapePatch{}.IsEmpty())
	assert.False(t, Position(1, 2).IsEmpty())
}

func TestGroupHas(t *testing.T) {
	g := ShapeGroup{ID: "g", Members: []string{"a", "b"}}
	assert.True(t, g.Has("a"))
	assert.False(t, g.Has("c"))

	cp := g.Clone()
	cp.Members[0] = "z"
	assert.Equal(t, "a", g.Members[0])
}

func TestSampleSnapshotIsValid(t *testing.T) {
	snap := NewSampleSnapshot("canvas_playground")
	require.NotEmpty(t, snap.Shapes)
	for _, s := range snap.Shapes {
		assert.NoError(t, s.Validate(), s.Name)
		assert.NotEmpty(t, s.ID)
	}
}
