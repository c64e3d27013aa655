package document

import (
	"time"

	"github.com/inamate/designsurface/internal/typeid"
)

// NewSampleSnapshot builds the playground canvas: one shape of each common kind.
func NewSampleSnapshot(canvasID string) *Snapshot {
	now := time.Now().UnixMilli()

	rect := NewShape(KindRectangle, 80, 80, 200, 120)
	rect.Name = "Card"
	rect.Fill = "#4f46e5"
	rect.Rect.CornerRadius = 12

	circle := NewShape(KindCircle, 340, 100, 100, 100)
	circle.Name = "Avatar"
	circle.Fill = "#f59e0b"

	title := NewShape(KindText, 80, 240, 320, 40)
	title.Name = "Title"
	title.Text.Content = "Hello, canvas"
	title.Text.FontSize = 28

	star := NewShape(KindStar, 500, 90, 120, 120)
	star.Name = "Badge"
	star.Fill = "#10b981"

	divider := NewShape(KindLine, 80, 300, 360, 0)
	divider.Name = "Divider"

	shapes := []Shape{rect, circle, title, star, divider}
	for i := range shapes {
		shapes[i].ID = typeid.NewShapeID()
		shapes[i].ZIndex = i
		shapes[i].CreatedAt = now
		shapes[i].UpdatedAt = now
		shapes[i].CreatedBy = "system"
		shapes[i].UpdatedBy = "system"
	}

	return &Snapshot{
		CanvasID: canvasID,
		Name:     "Playground",
		Version:  1,
		Shapes:   shapes,
		Groups:   []ShapeGroup{},
		Colors: []ColorToken{
			{ID: typeid.NewColorID(), Name: "Primary", Value: "#4f46e5"},
			{ID: typeid.NewColorID(), Name: "Accent", Value: "#f59e0b"},
		},
		Styles: []TextStyle{
			{ID: typeid.NewTextStyleID(), Name: "Heading", FontSize: 28, FontFamily: "Inter", FontWeight: "bold", FontStyle: "normal"},
			{ID: typeid.NewTextStyleID(), Name: "Body", FontSize: 16, FontFamily: "Inter", FontWeight: "normal", FontStyle: "normal"},
		},
	}
}

// NewEmptySnapshot creates the initial snapshot of a freshly created canvas.
func NewEmptySnapshot(canvasID, name string) *Snapshot {
	return &Snapshot{
		CanvasID: canvasID,
		Name:     name,
		Version:  1,
		Shapes:   []Shape{},
		Groups:   []ShapeGroup{},
		Colors:   []ColorToken{},
		Styles:   []TextStyle{},
	}
}
