package document

import (
	"errors"
	"fmt"

	"github.com/inamate/designsurface/internal/geometry"
)

var (
	ErrUnknownKind     = errors.New("unknown shape kind")
	ErrPayloadMismatch = errors.New("shape payload does not match kind")
)

type ShapeKind string

const (
	KindRectangle ShapeKind = "rectangle"
	KindCircle    ShapeKind = "circle"
	KindLine      ShapeKind = "line"
	KindText      ShapeKind = "text"
	KindTriangle  ShapeKind = "triangle"
	KindStar      ShapeKind = "star"
	KindImage     ShapeKind = "image"
	KindFrame     ShapeKind = "frame"
)

// Kinds lists every shape kind in a stable order.
var Kinds = []ShapeKind{
	KindRectangle, KindCircle, KindLine, KindText,
	KindTriangle, KindStar, KindImage, KindFrame,
}

func (k ShapeKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

type RectProps struct {
	CornerRadius float64 `json:"cornerRadius"`
}

// LineProps holds a flat x0,y0,x1,y1,... point list relative to the shape origin.
type LineProps struct {
	Points []float64 `json:"points"`
}

type TextProps struct {
	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	Align      string  `json:"align,omitempty"`
}

type StarProps struct {
	NumPoints   int     `json:"numPoints"`
	InnerRadius float64 `json:"innerRadius"`
	OuterRadius float64 `json:"outerRadius"`
}

type ImageProps struct {
	Src string `json:"src"`
}

// Shape is a single object on the design surface. Kind selects which of the
// variant payloads is populated; circle, triangle and frame carry none.
type Shape struct {
	ID   string    `json:"id"`
	Kind ShapeKind `json:"kind"`
	Name string    `json:"name"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`

	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`

	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
	ZIndex  int    `json:"zIndex"`
	GroupID string `json:"groupId,omitempty"`

	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedBy string `json:"updatedBy"`

	Rect  *RectProps  `json:"rect,omitempty"`
	Line  *LineProps  `json:"line,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Star  *StarProps  `json:"star,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
}

// NewShape returns a visible, unscaled shape of the given kind with an empty
// payload for kinds that need one.
func NewShape(kind ShapeKind, x, y, width, height float64) Shape {
	s := Shape{
		Kind:    kind,
		Name:    string(kind),
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		ScaleX:  1,
		ScaleY:  1,
		Fill:    "#d9d9d9",
		Opacity: 1,
		Visible: true,
	}
	switch kind {
	case KindRectangle:
		s.Rect = &RectProps{}
	case KindLine:
		s.Fill = ""
		s.Stroke = "#000000"
		s.StrokeWidth = 2
		s.Line = &LineProps{Points: []float64{0, 0, width, height}}
	case KindText:
		s.Fill = "#000000"
		s.Text = &TextProps{FontSize: 16, FontFamily: "Inter", Align: "left"}
	case KindStar:
		s.Star = &StarProps{NumPoints: 5, InnerRadius: width / 4, OuterRadius: width / 2}
	case KindImage:
		s.Image = &ImageProps{}
	}
	return s
}

// Validate checks that the populated payload matches Kind.
func (s Shape) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	want := map[string]bool{
		"rect":  s.Kind == KindRectangle,
		"line":  s.Kind == KindLine,
		"text":  s.Kind == KindText,
		"star":  s.Kind == KindStar,
		"image": s.Kind == KindImage,
	}
	have := map[string]bool{
		"rect":  s.Rect != nil,
		"line":  s.Line != nil,
		"text":  s.Text != nil,
		"star":  s.Star != nil,
		"image": s.Image != nil,
	}
	for name, ok := range have {
		if ok != want[name] {
			return fmt.Errorf("%w: kind %s with %s payload=%t", ErrPayloadMismatch, s.Kind, name, ok)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no memory with s.
func (s Shape) Clone() Shape {
	out := s
	if s.Rect != nil {
		r := *s.Rect
		out.Rect = &r
	}
	if s.Line != nil {
		l := LineProps{}
		if s.Line.Points != nil {
			l.Points = append(make([]float64, 0, len(s.Line.Points)), s.Line.Points...)
		}
		out.Line = &l
	}
	if s.Text != nil {
		t := *s.Text
		out.Text = &t
	}
	if s.Star != nil {
		st := *s.Star
		out.Star = &st
	}
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	return out
}

// Bounds returns the unrotated box covered by the shape (position, size and scale).
func (s Shape) Bounds() geometry.Rect {
	return geometry.Box(s.X, s.Y, s.Width, s.Height, s.ScaleX, s.ScaleY)
}

// Transform returns the local-to-canvas matrix including rotation.
func (s Shape) Transform() geometry.Matrix2D {
	return geometry.ShapeTransform(s.X, s.Y, s.ScaleX, s.ScaleY, s.Rotation)
}

// ShapeGroup ties two or more shapes together. Every member's GroupID equals ID.
type ShapeGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"createdBy"`
	CreatedAt int64    `json:"createdAt"`
}

// Clone returns a copy with its own member slice.
func (g ShapeGroup) Clone() ShapeGroup {
	out := g
	out.Members = append([]string(nil), g.Members...)
	return out
}

// Has reports whether id is a member of the group.
func (g ShapeGroup) Has(id string) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Component is a reusable template. Shape positions are relative to the
// component's own top-left corner.
type Component struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Shapes    []Shape `json:"shapes"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// Clone returns a deep copy of the component and its template shapes.
func (c Component) Clone() Component {
	out := c
	out.Shapes = make([]Shape, len(c.Shapes))
	for i, s := range c.Shapes {
		out.Shapes[i] = s.Clone()
	}
	return out
}

type ColorToken struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type TextStyle struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
}

// Snapshot is the persisted state of one canvas.
type Snapshot struct {
	CanvasID   string       `json:"canvasId"`
	Name       string       `json:"name"`
	Version    int          `json:"version"`
	Shapes     []Shape      `json:"shapes"`
	Groups     []ShapeGroup `json:"groups"`
	Components []Component  `json:"components,omitempty"`
	Colors     []ColorToken `json:"colors"`
	Styles     []TextStyle  `json:"textStyles"`
}
