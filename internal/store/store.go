// Package store persists users, canvases, canvas membership and document
// snapshots. Three backends implement Store: in-memory, Postgres and Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Canvas struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Member struct {
	CanvasID    string `json:"canvasId"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Snapshot is one persisted version of a canvas document. Document holds the
// JSON encoded document.Snapshot.
type Snapshot struct {
	ID        string          `json:"id"`
	CanvasID  string          `json:"canvasId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateCanvas(ctx context.Context, c Canvas) error
	GetCanvas(ctx context.Context, id string) (*Canvas, error)
	ListCanvases(ctx context.Context, userID string) ([]Canvas, error)
	DeleteCanvas(ctx context.Context, id string) error

	AddMember(ctx context.Context, canvasID, userID, role string) error
	GetMember(ctx context.Context, canvasID, userID string) (*Member, error)
	ListMembers(ctx context.Context, canvasID string) ([]Member, error)
	RemoveMember(ctx context.Context, canvasID, userID string) error

	// SaveSnapshot stores a new version. Versions of one canvas are unique.
	SaveSnapshot(ctx context.Context, s Snapshot) error
	LatestSnapshot(ctx context.Context, canvasID string) (*Snapshot, error)

	Close() error
}

// Open connects the backend named by backend: "memory", "postgres" or "redis".
func Open(ctx context.Context, backend, databaseURL, redisURL string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	case "redis":
		return NewRedis(ctx, redisURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
