package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/inamate/designsurface/internal/document"
	"github.com/inamate/designsurface/internal/session"
)

const saveTimeout = 10 * time.Second

// Loader returns the persisted state of a canvas.
type Loader func(ctx context.Context, canvasID string) (*document.Snapshot, error)

// Saver persists the state of a canvas.
type Saver func(ctx context.Context, canvasID string, snap *document.Snapshot) error

type HubConfig struct {
	Session session.Config
	// AutosaveInterval is how often dirty rooms are saved. Zero disables
	// periodic saves; rooms are still saved when they empty and on Stop.
	AutosaveInterval time.Duration
}

type Room struct {
	canvasID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	doc      *DocumentState
}

func NewRoom(canvasID string, doc *DocumentState) *Room {
	return &Room{
		canvasID: canvasID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(canvasID),
		doc:      doc,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // canvasID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}

	load Loader
	save Saver
	cfg  HubConfig
}

func NewHub(load Loader, save Saver, cfg HubConfig) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
		cfg:        cfg,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	var tick <-chan time.Time
	if h.cfg.AutosaveInterval > 0 {
		ticker := time.NewTicker(h.cfg.AutosaveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-tick:
			h.saveAll()
		case <-h.stop:
			h.saveAll()
			return
		}
	}
}

// Stop saves every dirty room and ends Run.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// LiveSnapshot returns the in-memory state of a canvas that has a room.
func (h *Hub) LiveSnapshot(canvasID string) (*document.Snapshot, bool) {
	h.mu.RLock()
	room, ok := h.rooms[canvasID]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	snap, _ := room.doc.Snapshot()
	return snap, true
}

func (h *Hub) openRoom(canvasID string) (*Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	snap, err := h.load(ctx, canvasID)
	if err != nil {
		return nil, err
	}
	s := session.New(canvasID, snap.Name, h.cfg.Session)
	s.Load(snap)
	return NewRoom(canvasID, NewDocumentState(s)), nil
}

func (h *Hub) addClient(client *Client) {
	// Rooms are only created and removed on the Run goroutine.
	room, ok := h.room(client.CanvasID)
	if !ok {
		var err error
		room, err = h.openRoom(client.CanvasID)
		if err != nil {
			slog.Error("load canvas", "canvas", client.CanvasID, "error", err)
			if msg, err := newMessage(TypeError, ErrorPayload{Message: "failed to load canvas"}); err == nil {
				client.Send(msg)
			}
			client.close()
			return
		}
	}

	h.mu.Lock()
	h.rooms[client.CanvasID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if msg, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		CanvasID: client.CanvasID,
	}); err == nil {
		client.Send(msg)
	}
	h.sendDocument(client, room)

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		joinMsg.UserID = client.UserID
		h.broadcastToRoom(client.CanvasID, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "user", client.UserID, "canvas", client.CanvasID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.CanvasID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.CanvasID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	} else {
		leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
		if err == nil {
			leaveMsg.UserID = client.UserID
			h.broadcastToRoom(client.CanvasID, leaveMsg, "")
		}
	}

	slog.Info("client left", "user", client.UserID, "canvas", client.CanvasID)
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
	}
}

func (h *Hub) saveRoom(room *Room) {
	snap, ok := room.doc.TakeDirty()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := h.save(ctx, room.canvasID, snap); err != nil {
		room.doc.MarkDirty()
		slog.Error("save canvas", "canvas", room.canvasID, "version", snap.Version, "error", err)
		return
	}
	slog.Debug("canvas saved", "canvas", room.canvasID, "version", snap.Version)
}

func (h *Hub) room(canvasID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[canvasID]
	return room, ok
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocRequest:
		if room, ok := h.room(sender.CanvasID); ok {
			h.sendDocument(sender, room)
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) sendDocument(client *Client, room *Room) {
	snap, seq := room.doc.Snapshot()
	msg, err := newMessage(TypeDocSync, DocSyncPayload{Document: snap, ServerSeq: seq})
	if err != nil {
		slog.Error("marshal document", "canvas", room.canvasID, "error", err)
		return
	}
	msg.Seq = seq
	client.Send(msg)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		h.nack(sender, "", "invalid payload")
		return
	}
	op := submit.Operation

	room, ok := h.room(sender.CanvasID)
	if !ok {
		return
	}

	applied, err := room.doc.ApplyOperation(sender.UserID, op)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrNoEffect) {
			level = slog.LevelDebug
		}
		slog.Log(context.Background(), level, "operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		h.nack(sender, op.ID, err.Error())
		return
	}

	seq := applied.ServerSeq
	now := GetServerTimestamp()
	if ack, err := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: now,
		Result:          applied.Result,
	}); err == nil {
		ack.Seq = seq
		sender.Send(ack)
	}

	out, err := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
		Result:    applied.Result,
		Document:  applied.Document,
	})
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}
	out.UserID = sender.UserID
	out.Seq = seq
	h.broadcastToRoom(sender.CanvasID, out, sender.ClientID)

	live := make(map[string]bool, len(applied.Document.Shapes))
	for _, s := range applied.Document.Shapes {
		live[s.ID] = true
	}
	if room.presence.Prune(func(id string) bool { return live[id] }) {
		if stateMsg := room.presence.StateMessage(); stateMsg != nil {
			h.broadcastToRoom(sender.CanvasID, stateMsg, "")
		}
	}
}

func (h *Hub) nack(client *Client, opID, reason string) {
	if msg, err := newMessage(TypeOpNack, OperationNackPayload{OperationID: opID, Reason: reason}); err == nil {
		client.Send(msg)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.CanvasID)
	if !ok {
		return
	}
	presence.Selection = slices.DeleteFunc(presence.Selection, func(id string) bool { return !room.doc.HasShape(id) })
	if presence.Dragging != "" && !room.doc.HasShape(presence.Dragging) {
		presence.Dragging = ""
	}
	stored := room.presence.Update(sender.UserID, &presence)

	outMsg, err := newMessage(TypePresenceUpdate, stored)
	if err != nil {
		return
	}
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.CanvasID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(canvasID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[canvasID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
