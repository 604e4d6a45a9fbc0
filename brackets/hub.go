package brackets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one websocket viewer of a tournament.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	room      *room
	closeOnce sync.Once
}

type room struct {
	tournamentID string
	clients      map[*Client]struct{}
	cancel       context.CancelFunc
}

// Hub relays tournament events to websocket viewers. Each tournament with at
// least one viewer holds a single subscription on the event bus.
type Hub struct {
	subscriber events.Subscriber
	log        *zap.SugaredLogger

	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub(subscriber events.Subscriber, log *zap.SugaredLogger) *Hub {
	return &Hub{
		subscriber: subscriber,
		log:        log,
		rooms:      make(map[string]*room),
	}
}

// Join registers conn as a viewer of the tournament. snapshot is called once
// the room's subscription exists and its result is the first message the
// viewer receives, so no event written after the snapshot is missed.
func (h *Hub) Join(tournamentID string, conn *websocket.Conn, snapshot func() ([]byte, error)) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[tournamentID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := h.subscriber.Subscribe(ctx, tournamentID)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open room %s: %w", tournamentID, err)
		}
		r = &room{tournamentID: tournamentID, clients: make(map[*Client]struct{}), cancel: cancel}
		h.rooms[tournamentID] = r
		go h.relay(r, stream)
		h.log.Debugw("Room opened", "tournament_id", tournamentID)
	}

	first, err := snapshot()
	if err != nil {
		h.closeRoomIfEmpty(r)
		return nil, err
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		room: r,
	}
	c.send <- first
	r.clients[c] = struct{}{}
	h.log.Infow("Client joined room", "tournament_id", tournamentID, "clients", len(r.clients))

	go c.writePump()
	go c.readPump()
	return c, nil
}

// Viewers reports how many clients watch a tournament.
func (h *Hub) Viewers(tournamentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[tournamentID]; ok {
		return len(r.clients)
	}
	return 0
}

// Close drops every viewer and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, r := range h.rooms {
		for c := range r.clients {
			c.closeSend()
		}
		r.cancel()
		delete(h.rooms, id)
	}
}

// relay feeds one room from its own subscription. A stream may still deliver
// after its room closed; those events belong to no viewer.
func (h *Hub) relay(r *room, stream <-chan events.Event) {
	for evt := range stream {
		data, err := json.Marshal(evt)
		if err != nil {
			h.log.Errorw("Failed to encode event for viewers", "tournament_id", r.tournamentID, "type", evt.Type, "error", err)
			continue
		}
		h.broadcast(r, data)
	}
	h.log.Debugw("Room subscription ended", "tournament_id", r.tournamentID)
}

func (h *Hub) broadcast(r *room, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isOpen(r) {
		return
	}
	for c := range r.clients {
		select {
		case c.send <- data:
		default:
			// a viewer that cannot keep up is dropped rather than stalling the room
			h.log.Warnw("Dropping slow client", "tournament_id", r.tournamentID)
			delete(r.clients, c)
			c.closeSend()
		}
	}
	h.closeRoomIfEmpty(r)
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := c.room
	if !h.isOpen(r) {
		return
	}
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		c.closeSend()
		h.log.Infow("Client left room", "tournament_id", r.tournamentID, "clients", len(r.clients))
	}
	h.closeRoomIfEmpty(r)
}

// isOpen reports whether r is still the live room of its tournament. It must
// be called with h.mu held.
func (h *Hub) isOpen(r *room) bool {
	return h.rooms[r.tournamentID] == r
}

// closeRoomIfEmpty must be called with h.mu held.
func (h *Hub) closeRoomIfEmpty(r *room) {
	if len(r.clients) > 0 || !h.isOpen(r) {
		return
	}
	r.cancel()
	delete(h.rooms, r.tournamentID)
	h.log.Debugw("Room closed", "tournament_id", r.tournamentID)
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump only services control frames; viewers never send commands.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("Client connection closed unexpectedly", "tournament_id", c.room.tournamentID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one event per frame so viewers can decode each message on its own
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debugw("Failed to write to client", "tournament_id", c.room.tournamentID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debugw("Failed to ping client", "tournament_id", c.room.tournamentID, "error", err)
				return
			}
		}
	}
}
