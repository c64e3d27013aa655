package collab

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/engine"
	"github.com/inamate/designsurface/internal/session"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrNoEffect is returned when the session rejected the operation as a
	// no-op: unknown ids, too few shapes, nothing to undo.
	ErrNoEffect = errors.New("operation had no effect")
)

// DocumentState holds the authoritative session of a room and serialises
// every operation applied to it.
type DocumentState struct {
	mu        sync.Mutex
	session   *session.Session
	serverSeq int64
	dirty     bool
}

func NewDocumentState(s *session.Session) *DocumentState {
	return &DocumentState{session: s}
}

// Snapshot returns the current persistable state and the server sequence it
// corresponds to.
func (ds *DocumentState) Snapshot() (*document.Snapshot, int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.session.Snapshot(), ds.serverSeq
}

// TakeDirty returns a snapshot when there are unsaved changes and clears
// the dirty flag. Callers that fail to persist should call MarkDirty.
func (ds *DocumentState) TakeDirty() (*document.Snapshot, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.session.Snapshot(), true
}

func (ds *DocumentState) HasShape(id string) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	_, ok := ds.session.Engine().Shape(id)
	return ok
}

func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	ds.dirty = true
	ds.mu.Unlock()
}

// Applied is the outcome of one accepted operation. Document is the state
// right after the operation, at ServerSeq.
type Applied struct {
	ServerSeq int64
	Result    Result
	Document  *document.Snapshot
}

// ApplyOperation applies op on behalf of userID.
func (ds *DocumentState) ApplyOperation(userID string, op Operation) (Applied, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.session.SetActor(userID)
	res, err := ds.apply(op)
	if err != nil {
		return Applied{}, fmt.Errorf("%s: %w", op.Type, err)
	}

	ds.session.Touch()
	ds.serverSeq++
	ds.dirty = true
	return Applied{
		ServerSeq: ds.serverSeq,
		Result:    res,
		Document:  ds.session.Snapshot(),
	}, nil
}

func (ds *DocumentState) apply(op Operation) (Result, error) {
	s := ds.session
	e := s.Engine()

	switch op.Type {
	case OpShapeCreate:
		if len(op.Shapes) == 0 {
			return Result{}, fmt.Errorf("%w: no shapes", ErrInvalidOperation)
		}
		added, err := e.AddMany(op.Shapes)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		return Result{IDs: shapeIDs(added)}, nil

	case OpShapeUpdate:
		if op.Patch == nil {
			return Result{}, fmt.Errorf("%w: missing patch", ErrInvalidOperation)
		}
		return effect(e.Update(op.ShapeID, *op.Patch), op.ShapeID)

	case OpShapeMove:
		if op.X == nil || op.Y == nil {
			return Result{}, fmt.Errorf("%w: missing position", ErrInvalidOperation)
		}
		guides, ok := s.MoveWithSnap(op.ShapeID, *op.X, *op.Y)
		if !ok {
			return Result{}, ErrNoEffect
		}
		return Result{IDs: []string{op.ShapeID}, Guides: guides}, nil

	case OpShapeDelete:
		return ids(e.DeleteMany(op.targets()))

	case OpShapeGroup:
		gid := e.GroupShapes(op.ShapeIDs, op.Name)
		return effect(gid != "", gid)

	case OpShapeUngroup:
		return effect(e.UngroupShapes(op.GroupID), op.GroupID)

	case OpShapeZOrder:
		var ok bool
		switch op.ZOrder {
		case ZFront:
			ok = e.BringToFront(op.ShapeIDs)
		case ZBack:
			ok = e.SendToBack(op.ShapeIDs)
		case ZForward:
			ok = e.BringForward(op.ShapeIDs)
		case ZBackward:
			ok = e.SendBackward(op.ShapeIDs)
		default:
			return Result{}, fmt.Errorf("%w: z-order %q", ErrInvalidOperation, op.ZOrder)
		}
		return effect(ok, op.ShapeIDs...)

	case OpShapeAlign:
		edge, ok := engine.ParseAlignEdge(op.Edge)
		if !ok {
			return Result{}, fmt.Errorf("%w: edge %q", ErrInvalidOperation, op.Edge)
		}
		return effect(e.AlignShapes(op.ShapeIDs, edge), op.ShapeIDs...)

	case OpShapeDistrib:
		dir, ok := engine.ParseDirection(op.Direction)
		if !ok {
			return Result{}, fmt.Errorf("%w: direction %q", ErrInvalidOperation, op.Direction)
		}
		return effect(e.DistributeShapes(op.ShapeIDs, dir), op.ShapeIDs...)

	case OpShapeDuplicate:
		return ids(e.DuplicateShapes(op.ShapeIDs))

	case OpHistoryUndo:
		return effect(e.Undo())

	case OpHistoryRedo:
		return effect(e.Redo())

	case OpComponentCreate:
		e.SetSelection(op.ShapeIDs)
		c, ok := s.CreateComponentFromSelection(op.Name)
		return effect(ok, c.ID)

	case OpComponentInstantiate:
		if op.X == nil || op.Y == nil {
			return Result{}, fmt.Errorf("%w: missing position", ErrInvalidOperation)
		}
		added, ok := s.InstantiateComponent(op.ComponentID, *op.X, *op.Y)
		return effect(ok, added...)

	case OpColorSet:
		if op.Color == nil {
			return Result{}, fmt.Errorf("%w: missing color", ErrInvalidOperation)
		}
		var (
			c   document.ColorToken
			err error
		)
		if op.Color.ID == "" {
			c, err = s.Tokens().AddColor(op.Color.Name, op.Color.Value)
		} else {
			c, err = s.Tokens().UpdateColor(op.Color.ID, op.Color.Name, op.Color.Value)
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		return Result{IDs: []string{c.ID}}, nil

	case OpColorDelete:
		return effect(s.Tokens().DeleteColor(op.TokenID), op.TokenID)

	case OpStyleSet:
		if op.Style == nil {
			return Result{}, fmt.Errorf("%w: missing style", ErrInvalidOperation)
		}
		var (
			ts  document.TextStyle
			err error
		)
		if op.Style.ID == "" {
			ts, err = s.Tokens().AddTextStyle(*op.Style)
		} else {
			ts, err = s.Tokens().UpdateTextStyle(*op.Style)
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		return Result{IDs: []string{ts.ID}}, nil

	case OpStyleDelete:
		return effect(s.Tokens().DeleteTextStyle(op.TokenID), op.TokenID)

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

// targets merges ShapeID and ShapeIDs.
func (op Operation) targets() []string {
	if op.ShapeID == "" {
		return op.ShapeIDs
	}
	return append([]string{op.ShapeID}, op.ShapeIDs...)
}

func effect(ok bool, ids ...string) (Result, error) {
	if !ok {
		return Result{}, ErrNoEffect
	}
	return Result{IDs: ids}, nil
}

func ids(out []string) (Result, error) {
	return effect(len(out) > 0, out...)
}

func shapeIDs(shapes []document.Shape) []string {
	out := make([]string, len(shapes))
	for i, s := range shapes {
		out[i] = s.ID
	}
	return out
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
