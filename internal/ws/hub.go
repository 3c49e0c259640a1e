package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"collab-service/internal/observability"
)

// MemberLister returns the current member ids of a project.
type MemberLister interface {
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
}

// Hub is the presence registry: user id to live clients, plus named rooms.
type Hub struct {
	mu      sync.RWMutex
	users   map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	members MemberLister
	log     *logrus.Entry
}

// NewHub creates an empty hub.
func NewHub(members MemberLister, logger *logrus.Logger) *Hub {
	return &Hub{
		users:   make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		members: members,
		log:     logger.WithField("component", "hub"),
	}
}

// Register indexes client under its handshake user id.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := client.UserID()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][client] = struct{}{}
}

// Unregister removes client from the registry and from every room.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := client.UserID()
	if clients, ok := h.users[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.users, userID)
		}
	}
	for room, clients := range h.rooms {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Join adds client to room, creating the room.
func (h *Hub) Join(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
}

// Leave removes client from room. Empty rooms are dropped.
func (h *Hub) Leave(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ResolveConnections returns the live clients of userID.
func (h *Hub) ResolveConnections(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.users[userID]))
	for client := range h.users[userID] {
		clients = append(clients, client)
	}
	return clients
}

// ResolveConnectionsInRoom restricts ResolveConnections to room when the room
// exists, and falls back to every connection of userID otherwise.
func (h *Hub) ResolveConnectionsInRoom(userID, room string) []*Client {
	h.mu.RLock()
	members, ok := h.rooms[room]
	if !ok {
		h.mu.RUnlock()
		return h.ResolveConnections(userID)
	}
	defer h.mu.RUnlock()

	clients := make([]*Client, 0)
	for client := range h.users[userID] {
		if _, in := members[client]; in {
			clients = append(clients, client)
		}
	}
	return clients
}

// ConnectionCount reports the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.users {
		n += len(clients)
	}
	return n
}

// BroadcastToUser enqueues event on every live client of userID. Delivery is
// fire-and-forget: offline users and full queues drop the event.
func (h *Hub) BroadcastToUser(userID, event string, payload any) error {
	frame, err := encode(Outbound{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	h.deliver(h.ResolveConnections(userID), event, frame)
	return nil
}

// BroadcastToProjectMembers delivers event to every current member of the
// project. Members are queried on each call; a query error fails the call.
func (h *Hub) BroadcastToProjectMembers(ctx context.Context, projectID, event string, payload any) error {
	memberIDs, err := h.members.ListMemberIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list project members: %w", err)
	}

	frame, err := encode(Outbound{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	for _, userID := range memberIDs {
		h.deliver(h.ResolveConnections(userID), event, frame)
	}
	return nil
}

func (h *Hub) deliver(clients []*Client, event string, frame []byte) {
	for _, client := range clients {
		if client.Enqueue(frame) {
			observability.IncFanoutDelivered(event)
			continue
		}
		observability.IncFanoutDropped(event)
		h.log.WithFields(logrus.Fields{
			"conn_id": client.info.ConnID,
			"user_id": client.info.UserID,
			"event":   event,
		}).Warn("dropping event for slow client")
	}
}

// BroadcastToUserInRoom is BroadcastToUser restricted by ResolveConnectionsInRoom.
func (h *Hub) BroadcastToUserInRoom(userID, room, event string, payload any) error {
	frame, err := encode(Outbound{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	h.deliver(h.ResolveConnectionsInRoom(userID, room), event, frame)
	return nil
}
