// Package sse fans access changes out to the affected profile's open event
// streams so clients can refetch their facts without waiting for the next
// navigation.
package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/marketingreboot/reboot-api/internal/models"
)

const EventAccessChanged = "access_changed"

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type AccessChangedEvent struct {
	ProfileID  uuid.UUID       `json:"profile_id"`
	Field      string          `json:"field"`
	UserRole   models.UserRole `json:"user_role"`
	IsAdmin    bool            `json:"is_admin"`
	IsVerified bool            `json:"is_verified"`
	ChangedBy  uuid.UUID       `json:"changed_by"`
}

type Client struct {
	ID        string
	ProfileID uuid.UUID
	Send      chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *ProfileMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type ProfileMessage struct {
	ProfileID uuid.UUID
	Event     Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ProfileMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run delivers registrations and broadcasts until ctx is done. On exit it
// closes every client's Send channel, ending their streams.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if client.ProfileID != msg.ProfileID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow consumer; it refetches on reconnect
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	close(h.done)
}

// Register adds client to the hub. Once the hub has stopped, the client's
// Send channel is closed instead so its stream ends immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports how many streams profileID has open.
func (h *Hub) Connected(profileID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.ProfileID == profileID {
			n++
		}
	}
	return n
}

// NotifyAccessChanged tells every stream of profile.ID that field changed.
// It never blocks the caller; when the queue is full the event is dropped.
func (h *Hub) NotifyAccessChanged(profile *models.Profile, field string, changedBy uuid.UUID) {
	msg := &ProfileMessage{
		ProfileID: profile.ID,
		Event: Event{
			Type: EventAccessChanged,
			Data: AccessChangedEvent{
				ProfileID:  profile.ID,
				Field:      field,
				UserRole:   profile.UserRole,
				IsAdmin:    profile.IsAdmin,
				IsVerified: profile.IsVerified,
				ChangedBy:  changedBy,
			},
		},
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}
