package statusfeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// StatusEvent is one live update pushed to connected admin dashboards
type StatusEvent struct {
	Type         string              `json:"type"` // "channel_status" or "email_dispatch"
	ChannelID    string              `json:"channelId,omitempty"`
	ChannelType  types.ChannelType   `json:"channelType,omitempty"`
	Status       types.ChannelStatus `json:"status,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	Provider     string              `json:"provider,omitempty"`
	Recipient    string              `json:"recipient,omitempty"`
	Success      *bool               `json:"success,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Hub maintains the set of connected dashboard clients and broadcasts
// status events to them. Delivery is best effort: a client that cannot
// keep up is dropped.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", h.ClientCount()).
				Msg("dashboard connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("dashboard disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn().
						Str("client_id", client.id).
						Msg("client send buffer full, closing connection")
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishChannelStatus broadcasts a channel status transition.
// Implements the monitor's StatusPublisher contract.
func (h *Hub) PublishChannelStatus(id string, channelType types.ChannelType, status types.ChannelStatus, errorMessage string) {
	h.publish(StatusEvent{
		Type:         "channel_status",
		ChannelID:    id,
		ChannelType:  channelType,
		Status:       status,
		ErrorMessage: errorMessage,
		Timestamp:    time.Now().UTC(),
	})
}

// PublishDispatch broadcasts an email dispatch outcome. Implements the
// dispatcher's DispatchPublisher contract.
func (h *Hub) PublishDispatch(provider string, to string, success bool) {
	h.publish(StatusEvent{
		Type:      "email_dispatch",
		Provider:  provider,
		Recipient: to,
		Success:   &success,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Hub) publish(event StatusEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode status event")
		return
	}
	select {
	case h.broadcast <- message:
	default:
		// Feed is best effort; never block a core operation on it
		h.logger.Warn().Msg("status feed broadcast buffer full, dropping event")
	}
}
