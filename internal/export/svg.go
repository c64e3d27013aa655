package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/geometry"
)

// SVGOptions controls the rendered document.
type SVGOptions struct {
	Title      string
	Padding    int
	Background string
}

// RenderSVG writes the visible shapes as an SVG document sized to their
// combined bounds. Shapes are painted in z order.
func RenderSVG(w io.Writer, shapes []document.Shape, opts SVGOptions) error {
	shapes = Renderable(shapes)

	boxes := make([]geometry.Rect, 0, len(shapes))
	for _, s := range shapes {
		local := geometry.Rect{Width: s.Width, Height: s.Height}
		boxes = append(boxes, s.Transform().TransformRect(local))
	}
	view := geometry.Bounds(boxes...)

	minX := int(math.Floor(view.X)) - opts.Padding
	minY := int(math.Floor(view.Y)) - opts.Padding
	width := int(math.Ceil(view.Right())) + opts.Padding - minX
	height := int(math.Ceil(view.Bottom())) + opts.Padding - minY
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	canvas := svg.New(w)
	canvas.Startview(width, height, minX, minY, width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	if opts.Background != "" {
		canvas.Rect(minX, minY, width, height, "fill:"+opts.Background)
	}
	for _, s := range shapes {
		if err := renderShape(canvas, s); err != nil {
			return err
		}
	}
	canvas.End()
	return nil
}

func renderShape(canvas *svg.SVG, s document.Shape) error {
	m := s.Transform()
	if !m.IsIdentity() {
		canvas.Gtransform(m.SVG())
		defer canvas.Gend()
	}

	style := shapeStyle(s)
	switch s.Kind {
	case document.KindText:
		if s.Text == nil {
			return fmt.Errorf("text shape %s has no text payload", s.ID)
		}
		x := 0.0
		switch s.Text.Align {
		case "center":
			x = s.Width / 2
		case "right":
			x = s.Width
		}
		canvas.Text(int(math.Round(x)), int(math.Round(s.Text.FontSize)), s.Text.Content, style+textStyle(*s.Text))
	case document.KindImage:
		if s.Image == nil || s.Image.Src == "" {
			return nil
		}
		canvas.Image(0, 0, int(math.Round(s.Width)), int(math.Round(s.Height)), s.Image.Src, "opacity:"+num(s.Opacity))
	default:
		d := shapePath(s)
		if d == "" {
			return nil
		}
		canvas.Path(d, style)
	}
	return nil
}

func shapeStyle(s document.Shape) string {
	var parts []string
	fill := s.Fill
	if fill == "" {
		fill = "none"
	}
	parts = append(parts, "fill:"+fill)
	if s.Stroke != "" && s.StrokeWidth > 0 {
		parts = append(parts, "stroke:"+s.Stroke, "stroke-width:"+num(s.StrokeWidth))
	}
	if s.Opacity < 1 {
		parts = append(parts, "opacity:"+num(s.Opacity))
	}
	return strings.Join(parts, ";")
}

func textStyle(t document.TextProps) string {
	var b strings.Builder
	b.WriteString(";font-size:" + num(t.FontSize) + "px")
	if t.FontFamily != "" {
		b.WriteString(";font-family:" + t.FontFamily)
	}
	if t.FontStyle != "" {
		b.WriteString(";font-style:" + t.FontStyle)
	}
	switch t.Align {
	case "center":
		b.WriteString(";text-anchor:middle")
	case "right":
		b.WriteString(";text-anchor:end")
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
