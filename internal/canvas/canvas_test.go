package canvas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/designsurface/internal/auth"
	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/store"
)

type fakeLive map[string]*document.Snapshot

func (f fakeLive) LiveSnapshot(canvasID string) (*document.Snapshot, bool) {
	doc, ok := f[canvasID]
	return doc, ok
}

func setup(t *testing.T) (*Service, store.Store) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.CreateUser(ctx, store.User{ID: "user_owner", Email: "owner@example.com", DisplayName: "Owner"}))
	require.NoError(t, st.CreateUser(ctx, store.User{ID: "user_guest", Email: "guest@example.com", DisplayName: "Guest"}))
	return NewService(st), st
}

func TestCreateSeedsDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	svc.SetDefaultTokens([]document.ColorToken{{ID: "color_1", Name: "Primary", Value: "#000"}}, nil)

	c, err := svc.Create(ctx, "Board", "user_owner")
	require.NoError(t, err)
	assert.Equal(t, "Board", c.Name)

	doc, err := svc.Document(ctx, c.ID, "user_owner")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, c.ID, doc.CanvasID)
	assert.Empty(t, doc.Shapes)
	require.Len(t, doc.Colors, 1)
	assert.Equal(t, "Primary", doc.Colors[0].Name)

	list, err := svc.List(ctx, "user_owner")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	c, err := svc.Create(ctx, "Board", "user_owner")
	require.NoError(t, err)

	_, err = svc.Get(ctx, c.ID, "user_guest")
	assert.ErrorIs(t, err, ErrNotMember)

	assert.ErrorIs(t, svc.InviteByEmail(ctx, c.ID, "user_guest", "guest@example.com"), ErrForbidden)
	assert.ErrorIs(t, svc.InviteByEmail(ctx, c.ID, "user_owner", "nobody@example.com"), ErrUserNotFound)
	require.NoError(t, svc.InviteByEmail(ctx, c.ID, "user_owner", "guest@example.com"))
	assert.ErrorIs(t, svc.InviteByEmail(ctx, c.ID, "user_owner", "guest@example.com"), ErrAlreadyMember)

	members, err := svc.ListMembers(ctx, c.ID, "user_guest")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	assert.ErrorIs(t, svc.RemoveMember(ctx, c.ID, "user_owner", "user_owner"), ErrRemoveOwner)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID, "user_guest"), ErrForbidden)
	require.NoError(t, svc.RemoveMember(ctx, c.ID, "user_owner", "user_guest"))
	assert.ErrorIs(t, svc.RemoveMember(ctx, c.ID, "user_owner", "user_guest"), ErrNotMember)

	require.NoError(t, svc.Delete(ctx, c.ID, "user_owner"))
	_, err = svc.Get(ctx, c.ID, "user_owner")
	assert.ErrorIs(t, err, ErrNotMember)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID, "user_owner"), ErrNotFound)
}

func TestDocumentPrefersLiveState(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	c, err := svc.Create(ctx, "Board", "user_owner")
	require.NoError(t, err)

	live := document.NewSampleSnapshot(c.ID)
	svc.SetLive(fakeLive{c.ID: live})

	doc, err := svc.Document(ctx, c.ID, "user_owner")
	require.NoError(t, err)
	assert.Same(t, live, doc)
}

func TestSaveDocumentVersions(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	c, err := svc.Create(ctx, "Board", "user_owner")
	require.NoError(t, err)

	doc := document.NewSampleSnapshot(c.ID)
	doc.Version = 2
	require.NoError(t, svc.SaveDocument(ctx, c.ID, doc))
	assert.ErrorIs(t, svc.SaveDocument(ctx, c.ID, doc), store.ErrConflict)

	loaded, err := svc.LoadDocument(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Version)
	assert.Len(t, loaded.Shapes, len(doc.Shapes))

	raw, err := svc.GetLatestSnapshot(ctx, c.ID, "user_owner")
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}

func serve(h *Handler, method, target, userID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/canvases", h.List).Methods("GET")
	r.HandleFunc("/api/canvases/{canvasId}", h.Get).Methods("GET")
	r.HandleFunc("/api/canvases/{canvasId}/export", h.Export).Methods("GET")

	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExportHandler(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	c, err := svc.Create(ctx, "My Board!", "user_owner")
	require.NoError(t, err)
	doc := document.NewSampleSnapshot(c.ID)
	doc.Version = 2
	require.NoError(t, svc.SaveDocument(ctx, c.ID, doc))
	h := NewHandler(svc)

	t.Run("json", func(t *testing.T) {
		rec := serve(h, "GET", "/api/canvases/"+c.ID+"/export?description=demo", "user_owner")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var out struct {
			Version    string `json:"version"`
			CanvasID   string `json:"canvasId"`
			ShapeCount int    `json:"shapeCount"`
			Metadata   struct {
				Description string `json:"description"`
			} `json:"metadata"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, c.ID, out.CanvasID)
		assert.Equal(t, len(doc.Shapes), out.ShapeCount)
		assert.Equal(t, "demo", out.Metadata.Description)
	})

	t.Run("svg", func(t *testing.T) {
		rec := serve(h, "GET", "/api/canvases/"+c.ID+"/export?format=svg&background=white", "user_owner")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="Playground.svg"`)
		assert.True(t, strings.Contains(rec.Body.String(), "<svg"))
	})

	t.Run("bad format", func(t *testing.T) {
		rec := serve(h, "GET", "/api/canvases/"+c.ID+"/export?format=png", "user_owner")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad background", func(t *testing.T) {
		rec := serve(h, "GET", "/api/canvases/"+c.ID+"/export?format=svg&background=%23zz", "user_owner")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not a member", func(t *testing.T) {
		rec := serve(h, "GET", "/api/canvases/"+c.ID+"/export", "user_guest")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "My-Board-", fileName("My Board!"))
	assert.Equal(t, "canvas", fileName(""))
}
