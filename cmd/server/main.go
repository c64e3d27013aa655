package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/designsurface/internal/asset"
	"github.com/inamate/designsurface/internal/auth"
	"github.com/inamate/designsurface/internal/canvas"
	"github.com/inamate/designsurface/internal/collab"
	"github.com/inamate/designsurface/internal/config"
	"github.com/inamate/designsurface/internal/document"
	mw "github.com/inamate/designsurface/internal/middleware"
	"github.com/inamate/designsurface/internal/session"
	"github.com/inamate/designsurface/internal/store"
	"github.com/inamate/designsurface/internal/tokens"
)

// The playground canvas is open to anonymous users and never persisted.
const playgroundCanvasID = "canvas_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		slog.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("store ready", "backend", cfg.StoreBackend)

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	canvasService := canvas.NewService(st)
	if cfg.TokensFile != "" {
		seed := tokens.NewRegistry()
		if err := seed.LoadFile(cfg.TokensFile); err != nil {
			slog.Error("load design tokens", "file", cfg.TokensFile, "error", err)
			os.Exit(1)
		}
		canvasService.SetDefaultTokens(seed.Colors(), seed.TextStyles())
		slog.Info("design tokens loaded", "file", cfg.TokensFile, "colors", len(seed.Colors()), "styles", len(seed.TextStyles()))
	}
	canvasHandler := canvas.NewHandler(canvasService)

	// Loader and saver run on the hub goroutine.
	docLoader := func(ctx context.Context, canvasID string) (*document.Snapshot, error) {
		if canvasID == playgroundCanvasID {
			return document.NewSampleSnapshot(canvasID), nil
		}
		return canvasService.LoadDocument(ctx, canvasID)
	}
	docSaver := func(ctx context.Context, canvasID string, snap *document.Snapshot) error {
		if canvasID == playgroundCanvasID {
			return nil
		}
		return canvasService.SaveDocument(ctx, canvasID, snap)
	}

	hub := collab.NewHub(docLoader, docSaver, collab.HubConfig{
		Session: session.Config{
			HistoryCapacity: cfg.HistoryCapacity,
			SnapThreshold:   cfg.SnapThreshold,
			DuplicateOffset: cfg.DuplicateOffset,
			Logger:          slog.Default(),
		},
		AutosaveInterval: cfg.AutosaveInterval,
	})
	go hub.Run()
	canvasService.SetLive(hub)

	assetHandler := asset.NewHandler(cfg.AssetDir)
	origins := cfg.Origins()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	r.Handle("/auth/me", authService.AuthMiddleware(http.HandlerFunc(authHandler.Me))).Methods("GET", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints (public, used by the playground and signed-in users)
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/canvases", canvasHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/canvases", canvasHandler.Create).Methods("POST")
	api.HandleFunc("/canvases/{canvasId}", canvasHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/canvases/{canvasId}", canvasHandler.Delete).Methods("DELETE")
	api.HandleFunc("/canvases/{canvasId}/invite", canvasHandler.Invite).Methods("POST", "OPTIONS")
	api.HandleFunc("/canvases/{canvasId}/members", canvasHandler.ListMembers).Methods("GET", "OPTIONS")
	api.HandleFunc("/canvases/{canvasId}/members/{userId}", canvasHandler.RemoveMember).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/canvases/{canvasId}/snapshots/latest", canvasHandler.GetLatestSnapshot).Methods("GET", "OPTIONS")
	api.HandleFunc("/canvases/{canvasId}/export", canvasHandler.Export).Methods("GET", "OPTIONS")

	// WebSocket endpoint
	wsOrigins := mw.OriginHosts(origins)
	r.HandleFunc("/ws/canvas/{canvasId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, canvasService, wsOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty canvases
		slog.Info("saving open canvases")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, canvasSvc *canvas.Service, origins []string) {
	canvasID := mux.Vars(r)["canvasId"]

	var userID string
	var displayName string

	if canvasID == playgroundCanvasID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Browsers cannot set headers on websocket requests, so the token
		// travels in the query string.
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := canvasSvc.CheckMember(r.Context(), canvasID, userID); err != nil {
			if errors.Is(err, canvas.ErrNotMember) {
				http.Error(w, "not a canvas member", http.StatusForbidden)
				return
			}
			slog.Error("check membership", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, canvasID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
