package collab

import (
	"encoding/json"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/snap"
)

type Message struct {
	Type     string          `json:"type"`
	CanvasID string          `json:"canvasId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is one user's live state on a canvas. Selection and
// Dragging hold shape ids.
type PresencePayload struct {
	CanvasID    string     `json:"canvasId,omitempty"`
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Dragging    string     `json:"dragging,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	CanvasID string `json:"canvasId"`
}

type DocSyncPayload struct {
	Document  *document.Snapshot `json:"document"`
	ServerSeq int64              `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeDocRequest = "doc.request"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types accepted in op.submit.
const (
	OpShapeCreate    = "shape.create"
	OpShapeUpdate    = "shape.update"
	OpShapeMove      = "shape.move"
	OpShapeDelete    = "shape.delete"
	OpShapeGroup     = "shape.group"
	OpShapeUngroup   = "shape.ungroup"
	OpShapeZOrder    = "shape.zorder"
	OpShapeAlign     = "shape.align"
	OpShapeDistrib   = "shape.distribute"
	OpShapeDuplicate = "shape.duplicate"

	OpHistoryUndo = "history.undo"
	OpHistoryRedo = "history.redo"

	OpComponentCreate      = "component.create"
	OpComponentInstantiate = "component.instantiate"

	OpColorSet    = "token.color.set"
	OpColorDelete = "token.color.delete"
	OpStyleSet    = "token.style.set"
	OpStyleDelete = "token.style.delete"
)

// Z-order moves for shape.zorder.
const (
	ZFront    = "front"
	ZBack     = "back"
	ZForward  = "forward"
	ZBackward = "backward"
)

// Operation is one mutation submitted by a client. Only the fields used by
// its Type are set.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	ShapeID  string   `json:"shapeId,omitempty"`
	ShapeIDs []string `json:"shapeIds,omitempty"`

	// shape.create
	Shapes []document.Shape `json:"shapes,omitempty"`

	// shape.update
	Patch *document.ShapePatch `json:"patch,omitempty"`

	// shape.move, component.instantiate
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// shape.group, component.create
	Name string `json:"name,omitempty"`

	// shape.ungroup
	GroupID string `json:"groupId,omitempty"`

	// shape.zorder, shape.align, shape.distribute
	ZOrder    string `json:"zOrder,omitempty"`
	Edge      string `json:"edge,omitempty"`
	Direction string `json:"direction,omitempty"`

	ComponentID string `json:"componentId,omitempty"`

	// token.*
	TokenID string               `json:"tokenId,omitempty"`
	Color   *document.ColorToken `json:"color,omitempty"`
	Style   *document.TextStyle  `json:"style,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// Result describes what an applied operation produced.
type Result struct {
	IDs    []string     `json:"ids,omitempty"`
	Guides []snap.Guide `json:"guides,omitempty"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
	Result          Result `json:"result"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is sent to the rest of the room. Document is the
// canvas state after the operation, so peers never replay server-side id
// generation themselves.
type OperationBroadcastPayload struct {
	Operation Operation          `json:"operation"`
	UserID    string             `json:"userId"`
	ServerSeq int64              `json:"serverSeq"`
	Result    Result             `json:"result"`
	Document  *document.Snapshot `json:"document"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}
