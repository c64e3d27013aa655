// Package component stores reusable shape templates. A component keeps its
// member shapes normalised so the template's top-left corner sits at (0,0);
// instantiating it translates the layout to the requested position.
package component

import (
	"sort"
	"strings"
	"time"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/geometry"
	"github.com/inamate/designsurface/internal/typeid"
)

const DefaultName = "Component"

// Library holds the components of one document. It is not safe for
// concurrent use.
type Library struct {
	components map[string]document.Component

	now        func() int64
	newShapeID func() string
	newID      func() string
}

func NewLibrary() *Library {
	return &Library{
		components: make(map[string]document.Component),
		now:        func() int64 { return time.Now().UnixMilli() },
		newShapeID: typeid.NewShapeID,
		newID:      typeid.NewComponentID,
	}
}

// Create builds a component from copies of shapes. It returns false when
// shapes is empty.
func (l *Library) Create(name string, shapes []document.Shape, userID string) (document.Component, bool) {
	if len(shapes) == 0 {
		return document.Component{}, false
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}

	boxes := make([]geometry.Rect, len(shapes))
	for i, s := range shapes {
		boxes[i] = s.Bounds()
	}
	box := geometry.Bounds(boxes...)

	members := make([]document.Shape, len(shapes))
	for i, s := range shapes {
		m := s.Clone()
		m.ID = l.newShapeID()
		m.X -= box.X
		m.Y -= box.Y
		m.GroupID = ""
		members[i] = m
	}

	now := l.now()
	c := document.Component{
		ID:        l.newID(),
		Name:      name,
		Shapes:    members,
		Width:     box.Width,
		Height:    box.Height,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.components[c.ID] = c.Clone()
	return c, true
}

// Instantiate returns fresh shapes laid out from the component with its
// top-left corner at (x, y). The shapes are not added to any document.
func (l *Library) Instantiate(id string, x, y float64, userID string) ([]document.Shape, bool) {
	c, ok := l.components[id]
	if !ok {
		return nil, false
	}
	now := l.now()
	out := make([]document.Shape, len(c.Shapes))
	for i, m := range c.Shapes {
		s := m.Clone()
		s.ID = l.newShapeID()
		s.X += x
		s.Y += y
		s.CreatedAt, s.UpdatedAt = now, now
		s.CreatedBy, s.UpdatedBy = userID, userID
		out[i] = s
	}
	return out, true
}

func (l *Library) Get(id string) (document.Component, bool) {
	c, ok := l.components[id]
	if !ok {
		return document.Component{}, false
	}
	return c.Clone(), true
}

// List returns every component ordered by name.
func (l *Library) List() []document.Component {
	out := make([]document.Component, 0, len(l.components))
	for _, c := range l.components {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l *Library) Rename(id, name string) bool {
	c, ok := l.components[id]
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	c.Name = name
	c.UpdatedAt = l.now()
	l.components[id] = c
	return true
}

func (l *Library) Delete(id string) bool {
	if _, ok := l.components[id]; !ok {
		return false
	}
	delete(l.components, id)
	return true
}

// Load replaces the library with previously persisted components.
func (l *Library) Load(components []document.Component) {
	l.components = make(map[string]document.Component, len(components))
	for _, c := range components {
		l.components[c.ID] = c.Clone()
	}
}

func (l *Library) Len() int {
	return len(l.components)
}
