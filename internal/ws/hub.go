package ws

import (
	"encoding/json"
	"sync"

	"github.com/medbridge/portal-api/pkg/auth"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/metrics"
)

// ClientMessage is an inbound message from a realtime client: a tagged
// request dispatched to the single authorization-checked handler per
// room family.
type ClientMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Client message types.
const (
	MessageJoin  = "room:join"
	MessageLeave = "room:leave"
)

// ServerMessage is an outbound event on a realtime connection.
type ServerMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Server event names.
const (
	EventNotificationNew   = "notification:new"
	EventAppointmentUpdate = "appointment:update"
	EventError             = "error"
	EventConnectError      = "connect_error"
)

// Client is one authenticated realtime connection.
type Client struct {
	Principal *auth.Principal
	Send      chan []byte
	rooms     map[string]struct{}
}

// Hub owns the room membership table. Only the hub adds or removes
// entries, triggered by join/leave messages or disconnects; all access
// is guarded by the mutex.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	all     map[*Client]struct{}
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewHub(logger *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
		metrics: m,
	}
}

// Register adds an authenticated client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(float64(len(h.all)))
	}
}

// Unregister removes a client from the hub and every room it joined,
// and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(float64(len(h.all)))
	}
}

// HandleMessage dispatches an inbound client message. Authorization
// failures are reported back on the same connection as an error event,
// never a disconnect, and never mutate the membership table.
func (h *Hub) HandleMessage(client *Client, msg ClientMessage) {
	switch msg.Type {
	case MessageJoin:
		h.join(client, msg.Room)
	case MessageLeave:
		h.leave(client, msg.Room)
	default:
		h.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (h *Hub) join(client *Client, room string) {
	_, subjectID, err := parseRoom(room)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	if !canJoin(client.Principal, subjectID) {
		if h.metrics != nil {
			h.metrics.RoomJoinsDenied.Inc()
		}
		h.logger.Warn("room join denied",
			"room", room,
			"caller_id", client.Principal.ID.String(),
			"caller_role", client.Principal.Role)
		h.sendError(client, "not authorized to join room "+room)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (h *Hub) leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// Broadcast sends an event to every member of the given room. It never
// broadcasts globally.
func (h *Hub) Broadcast(room string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(err, "failed to marshal server message", "event", msg.Event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}

	for client := range members {
		select {
		case client.Send <- data:
			if h.metrics != nil {
				h.metrics.BroadcastsDelivered.WithLabelValues(msg.Event).Inc()
			}
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

func (h *Hub) sendError(client *Client, message string) {
	data, err := json.Marshal(ServerMessage{
		Event: EventError,
		Data:  map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of clients in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
