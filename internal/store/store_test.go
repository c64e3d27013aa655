package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *Redis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	s := NewRedisFromClient(client)
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"redis":  func(t *testing.T) Store { return setupTestRedis(t) },
	}
}

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, User{ID: "user_a", Email: "Ada@example.com", DisplayName: "Ada", PasswordHash: "x"}))
	require.NoError(t, s.CreateUser(ctx, User{ID: "user_b", Email: "bob@example.com", DisplayName: "Bob", PasswordHash: "y"}))
	require.NoError(t, s.CreateCanvas(ctx, Canvas{ID: "canvas_1", Name: "Board", OwnerID: "user_a"}))
	require.NoError(t, s.AddMember(ctx, "canvas_1", "user_a", RoleOwner))
}

func TestStoreUsers(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, s)

			u, err := s.GetUserByEmail(ctx, "ada@EXAMPLE.com")
			require.NoError(t, err)
			assert.Equal(t, "user_a", u.ID)
			assert.Equal(t, "Ada", u.DisplayName)

			err = s.CreateUser(ctx, User{ID: "user_c", Email: "ada@example.com"})
			assert.ErrorIs(t, err, ErrConflict)

			_, err = s.GetUser(ctx, "user_missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetUserByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreCanvasesAndMembers(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, s)

			assert.ErrorIs(t, s.CreateCanvas(ctx, Canvas{ID: "canvas_1", OwnerID: "user_a"}), ErrConflict)

			list, err := s.ListCanvases(ctx, "user_a")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "Board", list[0].Name)

			list, err = s.ListCanvases(ctx, "user_b")
			require.NoError(t, err)
			assert.Empty(t, list)

			require.NoError(t, s.AddMember(ctx, "canvas_1", "user_b", RoleEditor))
			assert.ErrorIs(t, s.AddMember(ctx, "canvas_1", "user_b", RoleEditor), ErrConflict)
			assert.ErrorIs(t, s.AddMember(ctx, "canvas_missing", "user_b", RoleEditor), ErrNotFound)

			m, err := s.GetMember(ctx, "canvas_1", "user_b")
			require.NoError(t, err)
			assert.Equal(t, RoleEditor, m.Role)
			assert.Equal(t, "Bob", m.DisplayName)

			members, err := s.ListMembers(ctx, "canvas_1")
			require.NoError(t, err)
			require.Len(t, members, 2)
			assert.Equal(t, "user_a", members[0].UserID)

			require.NoError(t, s.RemoveMember(ctx, "canvas_1", "user_b"))
			assert.ErrorIs(t, s.RemoveMember(ctx, "canvas_1", "user_b"), ErrNotFound)
			_, err = s.GetMember(ctx, "canvas_1", "user_b")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.DeleteCanvas(ctx, "canvas_1"))
			assert.ErrorIs(t, s.DeleteCanvas(ctx, "canvas_1"), ErrNotFound)
			_, err = s.GetCanvas(ctx, "canvas_1")
			assert.ErrorIs(t, err, ErrNotFound)
			list, err = s.ListCanvases(ctx, "user_a")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStoreSnapshots(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, s)

			_, err := s.LatestSnapshot(ctx, "canvas_1")
			assert.ErrorIs(t, err, ErrNotFound)

			for v := 1; v <= 3; v++ {
				doc, _ := json.Marshal(map[string]int{"version": v})
				require.NoError(t, s.SaveSnapshot(ctx, Snapshot{ID: "snap", CanvasID: "canvas_1", Version: v, Document: doc}))
			}
			err = s.SaveSnapshot(ctx, Snapshot{CanvasID: "canvas_1", Version: 2, Document: []byte(`{}`)})
			assert.ErrorIs(t, err, ErrConflict)
			err = s.SaveSnapshot(ctx, Snapshot{CanvasID: "canvas_missing", Version: 1, Document: []byte(`{}`)})
			assert.ErrorIs(t, err, ErrNotFound)

			latest, err := s.LatestSnapshot(ctx, "canvas_1")
			require.NoError(t, err)
			assert.Equal(t, 3, latest.Version)
			assert.JSONEq(t, `{"version":3}`, string(latest.Document))
		})
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), "memory", "", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(context.Background(), "sqlite", "", "")
	assert.Error(t, err)
}
