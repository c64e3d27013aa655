package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is a process-local Store used for development and tests.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]User
	canvases  map[string]Canvas
	members   map[string]map[string]string // canvasID -> userID -> role
	snapshots map[string][]Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]User),
		canvases:  make(map[string]Canvas),
		members:   make(map[string]map[string]string),
		snapshots: make(map[string][]Snapshot),
	}
}

func (m *Memory) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrConflict)
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateCanvas(_ context.Context, c Canvas) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canvases[c.ID]; ok {
		return fmt.Errorf("canvas %s: %w", c.ID, ErrConflict)
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	m.canvases[c.ID] = c
	return nil
}

func (m *Memory) GetCanvas(_ context.Context, id string) (*Canvas, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.canvases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// ListCanvases returns the canvases userID is a member of, newest first.
func (m *Memory) ListCanvases(_ context.Context, userID string) ([]Canvas, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Canvas, 0)
	for id, roles := range m.members {
		if _, ok := roles[userID]; ok {
			if c, ok := m.canvases[id]; ok {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteCanvas(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canvases[id]; !ok {
		return ErrNotFound
	}
	delete(m.canvases, id)
	delete(m.members, id)
	delete(m.snapshots, id)
	return nil
}

func (m *Memory) AddMember(_ context.Context, canvasID, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canvases[canvasID]; !ok {
		return ErrNotFound
	}
	roles, ok := m.members[canvasID]
	if !ok {
		roles = make(map[string]string)
		m.members[canvasID] = roles
	}
	if _, exists := roles[userID]; exists {
		return fmt.Errorf("member %s: %w", userID, ErrConflict)
	}
	roles[userID] = role
	return nil
}

func (m *Memory) GetMember(_ context.Context, canvasID, userID string) (*Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	role, ok := m.members[canvasID][userID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.member(canvasID, userID, role), nil
}

func (m *Memory) ListMembers(_ context.Context, canvasID string) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Member, 0, len(m.members[canvasID]))
	for userID, role := range m.members[canvasID] {
		out = append(out, *m.member(canvasID, userID, role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) member(canvasID, userID, role string) *Member {
	u := m.users[userID]
	return &Member{
		CanvasID:    canvasID,
		UserID:      userID,
		Role:        role,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}

func (m *Memory) RemoveMember(_ context.Context, canvasID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[canvasID][userID]; !ok {
		return ErrNotFound
	}
	delete(m.members[canvasID], userID)
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canvases[s.CanvasID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.snapshots[s.CanvasID] {
		if existing.Version == s.Version {
			return fmt.Errorf("snapshot version %d: %w", s.Version, ErrConflict)
		}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.Document = append([]byte(nil), s.Document...)
	m.snapshots[s.CanvasID] = append(m.snapshots[s.CanvasID], s)

	c := m.canvases[s.CanvasID]
	c.UpdatedAt = s.CreatedAt
	m.canvases[s.CanvasID] = c
	return nil
}

func (m *Memory) LatestSnapshot(_ context.Context, canvasID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Snapshot
	for i, s := range m.snapshots[canvasID] {
		if latest == nil || s.Version > latest.Version {
			latest = &m.snapshots[canvasID][i]
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	out.Document = append([]byte(nil), latest.Document...)
	return &out, nil
}

func (m *Memory) Close() error { return nil }
