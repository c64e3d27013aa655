package collab

import (
	"log/slog"
	"slices"
	"sync"
)

// PresenceManager tracks cursors and shape selections of the users in one
// canvas room.
type PresenceManager struct {
	canvasID string

	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager(canvasID string) *PresenceManager {
	return &PresenceManager{
		canvasID:  canvasID,
		presences: make(map[string]*PresencePayload),
	}
}

// Update stores a copy of p stamped with the room's canvas.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) *PresencePayload {
	cp := *p
	cp.CanvasID = pm.canvasID
	cp.Selection = slices.Clone(p.Selection)

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = &cp
	return &cp
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

// Prune drops shape ids that no longer exist from every selection and drag.
// It reports whether any presence changed.
func (pm *PresenceManager) Prune(exists func(shapeID string) bool) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	changed := false
	for _, p := range pm.presences {
		kept := slices.DeleteFunc(p.Selection, func(id string) bool { return !exists(id) })
		if len(kept) != len(p.Selection) {
			changed = true
		}
		p.Selection = kept
		if p.Dragging != "" && !exists(p.Dragging) {
			p.Dragging = ""
			changed = true
		}
	}
	return changed
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		cp := *v
		cp.Selection = slices.Clone(v.Selection)
		result[k] = &cp
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "canvas", pm.canvasID, "error", err)
		return nil
	}
	return msg
}
