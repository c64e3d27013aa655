package document

// ShapePatch carries a partial update. Nil fields are left untouched.
// Variant payload pointers replace the whole payload when set and are ignored
// when they don't match the target's kind.
type ShapePatch struct {
	Name *string `json:"name,omitempty"`

	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	ScaleX   *float64 `json:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty"`

	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`

	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`
	ZIndex  *int  `json:"zIndex,omitempty"`

	Rect  *RectProps  `json:"rect,omitempty"`
	Line  *LineProps  `json:"line,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Star  *StarProps  `json:"star,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
}

// Position is a convenience patch that only moves a shape.
func Position(x, y float64) ShapePatch {
	return ShapePatch{X: &x, Y: &y}
}

// Z is a convenience patch that only changes the z-index.
func Z(z int) ShapePatch {
	return ShapePatch{ZIndex: &z}
}

// IsEmpty reports whether the patch changes nothing.
func (p ShapePatch) IsEmpty() bool {
	return p == ShapePatch{}
}

// Apply merges the patch into s.
func (p ShapePatch) Apply(s *Shape) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	if p.ScaleX != nil {
		s.ScaleX = *p.ScaleX
	}
	if p.ScaleY != nil {
		s.ScaleY = *p.ScaleY
	}
	if p.Fill != nil {
		s.Fill = *p.Fill
	}
	if p.Stroke != nil {
		s.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		s.StrokeWidth = *p.StrokeWidth
	}
	if p.Opacity != nil {
		s.Opacity = ClampOpacity(*p.Opacity)
	}
	if p.Visible != nil {
		s.Visible = *p.Visible
	}
	if p.Locked != nil {
		s.Locked = *p.Locked
	}
	if p.ZIndex != nil {
		s.ZIndex = *p.ZIndex
	}

	// Payloads are copied so the patch never aliases the stored shape.
	switch s.Kind {
	case KindRectangle:
		if p.Rect != nil {
			r := *p.Rect
			s.Rect = &r
		}
	case KindLine:
		if p.Line != nil {
			s.Line = &LineProps{Points: append([]float64(nil), p.Line.Points...)}
		}
	case KindText:
		if p.Text != nil {
			t := *p.Text
			s.Text = &t
		}
	case KindStar:
		if p.Star != nil {
			st := *p.Star
			s.Star = &st
		}
	case KindImage:
		if p.Image != nil {
			img := *p.Image
			s.Image = &img
		}
	}
}

// ClampOpacity limits v to [0, 1].
func ClampOpacity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
