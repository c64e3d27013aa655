// Package session ties the state objects of one editing session together:
// the shape engine, the component library and the token registry. Each is
// constructed independently and owned by the Session.
package session

import (
	"log/slog"
	"time"

	"github.com/inamate/designsurface/internal/component"
	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/engine"
	"github.com/inamate/designsurface/internal/export"
	"github.com/inamate/designsurface/internal/snap"
	"github.com/inamate/designsurface/internal/tokens"
)

// Config holds tunables. Zero values select package defaults.
type Config struct {
	HistoryCapacity int
	SnapThreshold   float64
	DuplicateOffset float64
	Logger          *slog.Logger
}

type Session struct {
	canvasID string
	name     string
	version  int

	engine     *engine.Engine
	components *component.Library
	tokens     *tokens.Registry
	snap       *snap.Engine
}

func New(canvasID, name string, cfg Config) *Session {
	opts := []engine.Option{engine.WithHistoryCapacity(cfg.HistoryCapacity)}
	if cfg.DuplicateOffset > 0 {
		opts = append(opts, engine.WithDuplicateOffset(cfg.DuplicateOffset))
	}
	if cfg.Logger != nil {
		opts = append(opts, engine.WithLogger(cfg.Logger.With("canvas", canvasID)))
	}
	return &Session{
		canvasID:   canvasID,
		name:       name,
		engine:     engine.NewEngine(opts...),
		components: component.NewLibrary(),
		tokens:     tokens.NewRegistry(),
		snap:       snap.NewEngine(cfg.SnapThreshold),
	}
}

func (s *Session) CanvasID() string { return s.canvasID }
func (s *Session) Name() string     { return s.name }
func (s *Session) Version() int     { return s.version }

// Touch marks a change that should be persisted and returns the new version.
func (s *Session) Touch() int {
	s.version++
	return s.version
}

func (s *Session) Engine() *engine.Engine         { return s.engine }
func (s *Session) Components() *component.Library { return s.components }
func (s *Session) Tokens() *tokens.Registry       { return s.tokens }

// SetActor sets the user that subsequent mutations are attributed to.
func (s *Session) SetActor(userID string) {
	s.engine.SetActor(userID)
}

// SnapShape computes snap guides for the shape as if it were moved to
// (x, y). Every other visible shape is a candidate.
func (s *Session) SnapShape(id string, x, y float64) (snap.Result, bool) {
	shape, ok := s.engine.Shape(id)
	if !ok {
		return snap.Result{}, false
	}
	shape.X, shape.Y = x, y
	return s.snap.Compute(shape.Bounds(), s.engine.SnapTargets(id)), true
}

// MoveWithSnap moves the shape to (x, y) corrected by the snap result and
// returns the guides to display.
func (s *Session) MoveWithSnap(id string, x, y float64) ([]snap.Guide, bool) {
	res, ok := s.SnapShape(id, x, y)
	if !ok {
		return nil, false
	}
	if res.X.Snapped {
		x = res.X.Position
	}
	if res.Y.Snapped {
		y = res.Y.Position
	}
	return res.Guides, s.engine.Update(id, document.Position(x, y))
}

// CreateComponentFromSelection turns the selected shapes into a component.
func (s *Session) CreateComponentFromSelection(name string) (document.Component, bool) {
	var shapes []document.Shape
	for _, id := range s.engine.Selection() {
		if shape, ok := s.engine.Shape(id); ok {
			shapes = append(shapes, shape)
		}
	}
	engine.SortByZ(shapes)
	return s.components.Create(name, shapes, s.engine.Actor())
}

// InstantiateComponent places a copy of the component at (x, y) as one
// undo step and selects it.
func (s *Session) InstantiateComponent(id string, x, y float64) ([]string, bool) {
	shapes, ok := s.components.Instantiate(id, x, y, s.engine.Actor())
	if !ok {
		return nil, false
	}
	added, err := s.engine.AddMany(shapes)
	if err != nil {
		return nil, false
	}
	ids := make([]string, len(added))
	for i, shape := range added {
		ids[i] = shape.ID
	}
	s.engine.SetSelection(ids)
	return ids, true
}

// Snapshot captures the persistable state of the session.
func (s *Session) Snapshot() *document.Snapshot {
	return &document.Snapshot{
		CanvasID:   s.canvasID,
		Name:       s.name,
		Version:    s.version,
		Shapes:     s.engine.ShapesByZ(),
		Groups:     s.engine.Groups(),
		Components: s.components.List(),
		Colors:     s.tokens.Colors(),
		Styles:     s.tokens.TextStyles(),
	}
}

// Load replaces the session state with a snapshot. History is cleared.
func (s *Session) Load(snapshot *document.Snapshot) {
	if snapshot.Name != "" {
		s.name = snapshot.Name
	}
	s.version = snapshot.Version
	s.engine.Load(snapshot.Shapes, snapshot.Groups)
	s.components.Load(snapshot.Components)
	s.tokens.Load(snapshot.Colors, snapshot.Styles)
}

// Export builds the JSON export document of the current shapes.
func (s *Session) Export(description string) export.Document {
	meta := export.Metadata{Name: s.name, Description: description}
	return export.Build(s.engine.ShapesByZ(), s.canvasID, meta, time.Now())
}
