package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/engine"
)

// FormatVersion is written into every exported document.
const FormatVersion = "1.0"

type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Document is the portable JSON form of a canvas.
type Document struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	CanvasID   string           `json:"canvasId"`
	Metadata   Metadata         `json:"metadata"`
	Shapes     []document.Shape `json:"shapes"`
	ShapeCount int              `json:"shapeCount"`
}

// Build copies shapes into an export document stamped with at.
func Build(shapes []document.Shape, canvasID string, meta Metadata, at time.Time) Document {
	out := make([]document.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return Document{
		Version:    FormatVersion,
		ExportedAt: at.UTC(),
		CanvasID:   canvasID,
		Metadata:   meta,
		Shapes:     out,
		ShapeCount: len(out),
	}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	return nil
}

// Renderable returns the visible shapes in paint order.
func Renderable(shapes []document.Shape) []document.Shape {
	out := make([]document.Shape, 0, len(shapes))
	for _, s := range shapes {
		if s.Visible {
			out = append(out, s.Clone())
		}
	}
	engine.SortByZ(out)
	return out
}
