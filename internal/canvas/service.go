// Package canvas manages canvases, their members and their stored documents.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/store"
	"github.com/inamate/designsurface/internal/typeid"
)

var (
	ErrNotFound      = errors.New("canvas not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotMember     = errors.New("not a canvas member")
	ErrUserNotFound  = errors.New("user not found")
	ErrRemoveOwner   = errors.New("cannot remove canvas owner")
	ErrAlreadyMember = errors.New("user is already a member")
)

// LiveSource exposes documents that are open in a collaboration room.
type LiveSource interface {
	LiveSnapshot(canvasID string) (*document.Snapshot, bool)
}

type Service struct {
	store  store.Store
	live   LiveSource
	colors []document.ColorToken
	styles []document.TextStyle
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// SetLive makes Document prefer in-memory state over the last saved snapshot.
func (s *Service) SetLive(live LiveSource) {
	s.live = live
}

// SetDefaultTokens seeds the design tokens of every canvas created afterwards.
func (s *Service) SetDefaultTokens(colors []document.ColorToken, styles []document.TextStyle) {
	s.colors = colors
	s.styles = styles
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*store.Canvas, error) {
	c := store.Canvas{
		ID:      typeid.NewCanvasID(),
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.store.CreateCanvas(ctx, c); err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}

	if err := s.store.AddMember(ctx, c.ID, ownerID, store.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	doc := document.NewEmptySnapshot(c.ID, name)
	doc.Colors = append(doc.Colors, s.colors...)
	doc.Styles = append(doc.Styles, s.styles...)
	if err := s.SaveDocument(ctx, c.ID, doc); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return s.store.GetCanvas(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, canvasID, userID string) (*store.Canvas, error) {
	if err := s.checkMembership(ctx, canvasID, userID); err != nil {
		return nil, err
	}
	return s.canvas(ctx, canvasID)
}

func (s *Service) List(ctx context.Context, userID string) ([]store.Canvas, error) {
	canvases, err := s.store.ListCanvases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	return canvases, nil
}

func (s *Service) Delete(ctx context.Context, canvasID, userID string) error {
	c, err := s.canvas(ctx, canvasID)
	if err != nil {
		return err
	}
	if c.OwnerID != userID {
		return ErrForbidden
	}
	return s.store.DeleteCanvas(ctx, canvasID)
}

func (s *Service) InviteByEmail(ctx context.Context, canvasID, ownerID, inviteeEmail string) error {
	c, err := s.canvas(ctx, canvasID)
	if err != nil {
		return err
	}
	if c.OwnerID != ownerID {
		return ErrForbidden
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.store.AddMember(ctx, canvasID, invitee.ID, store.RoleEditor); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, canvasID, userID string) ([]store.Member, error) {
	if err := s.checkMembership(ctx, canvasID, userID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, canvasID, ownerID, targetUserID string) error {
	c, err := s.canvas(ctx, canvasID)
	if err != nil {
		return err
	}
	if c.OwnerID != ownerID {
		return ErrForbidden
	}
	if targetUserID == ownerID {
		return ErrRemoveOwner
	}

	if err := s.store.RemoveMember(ctx, canvasID, targetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// CheckMember reports ErrNotMember unless userID belongs to the canvas.
func (s *Service) CheckMember(ctx context.Context, canvasID, userID string) error {
	return s.checkMembership(ctx, canvasID, userID)
}

func (s *Service) GetLatestSnapshot(ctx context.Context, canvasID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, canvasID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.LatestSnapshot(ctx, canvasID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// Document returns the current document of a canvas the user belongs to:
// the live state when a room is open, otherwise the latest snapshot.
func (s *Service) Document(ctx context.Context, canvasID, userID string) (*document.Snapshot, error) {
	if err := s.checkMembership(ctx, canvasID, userID); err != nil {
		return nil, err
	}
	if s.live != nil {
		if doc, ok := s.live.LiveSnapshot(canvasID); ok {
			return doc, nil
		}
	}
	return s.LoadDocument(ctx, canvasID)
}

// LoadDocument decodes the latest stored snapshot without access checks.
func (s *Service) LoadDocument(ctx context.Context, canvasID string) (*document.Snapshot, error) {
	snap, err := s.store.LatestSnapshot(ctx, canvasID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var doc document.Snapshot
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	doc.Version = snap.Version
	return &doc, nil
}

// SaveDocument stores doc as a new snapshot at doc.Version.
func (s *Service) SaveDocument(ctx context.Context, canvasID string, doc *document.Snapshot) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	err = s.store.SaveSnapshot(ctx, store.Snapshot{
		ID:       typeid.NewSnapshotID(),
		CanvasID: canvasID,
		Version:  doc.Version,
		Document: data,
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Service) canvas(ctx context.Context, canvasID string) (*store.Canvas, error) {
	c, err := s.store.GetCanvas(ctx, canvasID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	return c, nil
}

func (s *Service) checkMembership(ctx context.Context, canvasID, userID string) error {
	if _, err := s.store.GetMember(ctx, canvasID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}
