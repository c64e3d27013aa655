package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/inamate/designsurface/internal/document"
)

// bezierCircle is the control point distance for a quarter circle:
// k = 4 * (sqrt(2) - 1) / 3.
const bezierCircle = 0.5522847498

type pathBuilder struct {
	sb strings.Builder
}

func (b *pathBuilder) cmd(op string, coords ...float64) {
	if b.sb.Len() > 0 {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(op)
	for _, c := range coords {
		b.sb.WriteByte(' ')
		b.sb.WriteString(strconv.FormatFloat(c, 'f', -1, 64))
	}
}

func (b *pathBuilder) String() string { return b.sb.String() }

// shapePath returns SVG path data for the shape in its local coordinate
// space, (0,0) to (width,height). Text and image shapes have no path.
func shapePath(s document.Shape) string {
	w, h := s.Width, s.Height
	switch s.Kind {
	case document.KindRectangle:
		r := 0.0
		if s.Rect != nil {
			r = s.Rect.CornerRadius
		}
		return rectPath(w, h, r)
	case document.KindFrame:
		return rectPath(w, h, 0)
	case document.KindCircle:
		return ellipsePath(w/2, h/2, w/2, h/2)
	case document.KindTriangle:
		var b pathBuilder
		b.cmd("M", w/2, 0)
		b.cmd("L", w, h)
		b.cmd("L", 0, h)
		b.cmd("Z")
		return b.String()
	case document.KindStar:
		return starPath(s)
	case document.KindLine:
		return linePath(s)
	}
	return ""
}

func rectPath(w, h, radius float64) string {
	var b pathBuilder
	r := math.Min(radius, math.Min(w, h)/2)
	if r <= 0 {
		b.cmd("M", 0, 0)
		b.cmd("L", w, 0)
		b.cmd("L", w, h)
		b.cmd("L", 0, h)
		b.cmd("Z")
		return b.String()
	}
	b.cmd("M", r, 0)
	b.cmd("L", w-r, 0)
	b.cmd("A", r, r, 0, 0, 1, w, r)
	b.cmd("L", w, h-r)
	b.cmd("A", r, r, 0, 0, 1, w-r, h)
	b.cmd("L", r, h)
	b.cmd("A", r, r, 0, 0, 1, 0, h-r)
	b.cmd("L", 0, r)
	b.cmd("A", r, r, 0, 0, 1, r, 0)
	b.cmd("Z")
	return b.String()
}

// ellipsePath approximates an ellipse with four cubic curves.
func ellipsePath(cx, cy, rx, ry float64) string {
	kx, ky := rx*bezierCircle, ry*bezierCircle
	var b pathBuilder
	b.cmd("M", cx+rx, cy)
	b.cmd("C", cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	b.cmd("C", cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	b.cmd("C", cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	b.cmd("C", cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	b.cmd("Z")
	return b.String()
}

func starPath(s document.Shape) string {
	points, outer, inner := 5, s.Width/2, s.Width/4
	if s.Star != nil {
		if s.Star.NumPoints >= 2 {
			points = s.Star.NumPoints
		}
		if s.Star.OuterRadius > 0 {
			outer = s.Star.OuterRadius
		}
		if s.Star.InnerRadius > 0 {
			inner = s.Star.InnerRadius
		}
	}
	cx, cy := s.Width/2, s.Height/2
	var b pathBuilder
	for i := 0; i < points*2; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/float64(points)
		op := "L"
		if i == 0 {
			op = "M"
		}
		b.cmd(op, round(cx+r*math.Cos(angle)), round(cy+r*math.Sin(angle)))
	}
	b.cmd("Z")
	return b.String()
}

func linePath(s document.Shape) string {
	if s.Line == nil || len(s.Line.Points) < 4 {
		return ""
	}
	var b pathBuilder
	pts := s.Line.Points
	for i := 0; i+1 < len(pts); i += 2 {
		op := "L"
		if i == 0 {
			op = "M"
		}
		b.cmd(op, pts[i], pts[i+1])
	}
	return b.String()
}

// round trims floating point noise from trigonometry.
func round(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}
