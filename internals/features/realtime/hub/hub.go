// internals/features/realtime/hub/hub.go
package hub

import (
	"context"
	"log"
	"sync"
)

const (
	EventSyncUpdate      = "sync_update"
	EventAppNotification = "app_notification"
)

// Signal adalah event realtime. UserIDs kosong = broadcast ke semua koneksi.
type Signal struct {
	Event   string   `json:"event"`
	Data    any      `json:"data,omitempty"`
	UserIDs []string `json:"userIds,omitempty"`
}

// frame yang benar-benar dikirim ke client (tanpa daftar penerima).
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Conn: subset *websocket.Conn yang dipakai hub.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client satu koneksi websocket milik satu user. Write diserialkan per koneksi.
type Client struct {
	UserID string
	conn   Conn
	mu     sync.Mutex
}

func (c *Client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func New() *Hub {
	return &Hub{clients: map[string]map[*Client]struct{}{}}
}

func (h *Hub) Register(userID string, conn Conn) *Client {
	c := &Client{UserID: userID, conn: conn}
	h.mu.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = map[*Client]struct{}{}
		h.clients[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) Unregister(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	_ = c.conn.Close()
}

// Count jumlah koneksi aktif.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) Broadcast(sig Signal) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, set := range h.clients {
		for c := range set {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	return h.deliver(targets, sig)
}

func (h *Hub) SendToUsers(userIDs []string, sig Signal) int {
	h.mu.RLock()
	var targets []*Client
	for _, id := range userIDs {
		for c := range h.clients[id] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	return h.deliver(targets, sig)
}

// Dispatch memilih Broadcast atau SendToUsers sesuai sig.UserIDs.
func (h *Hub) Dispatch(sig Signal) int {
	if len(sig.UserIDs) == 0 {
		return h.Broadcast(sig)
	}
	return h.SendToUsers(sig.UserIDs, sig)
}

// Emit: emitter untuk deployment satu instance.
func (h *Hub) Emit(_ context.Context, sig Signal) error {
	h.Dispatch(sig)
	return nil
}

// deliver menulis ke setiap target; koneksi yang gagal ditulis dilepas.
func (h *Hub) deliver(targets []*Client, sig Signal) int {
	f := frame{Event: sig.Event, Data: sig.Data}
	sent := 0
	for _, c := range targets {
		if err := c.write(f); err != nil {
			log.Printf("[REALTIME] tulis ke user=%s gagal, koneksi dilepas: %v", c.UserID, err)
			h.Unregister(c)
			continue
		}
		sent++
	}
	return sent
}
