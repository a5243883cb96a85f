package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"invpulse/internal/infrastructure"
	"invpulse/pkg/contracts/events"
)

// outbound is a marshalled message and the owner it is scoped to. An empty
// owner reaches every client.
type outbound struct {
	owner string
	data  []byte
}

// HubMetrics is a snapshot of the hub counters.
type HubMetrics struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// Hub maintains the set of active clients and fans upload status events out to them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	version string

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub. version is reported to clients in the connect message.
func NewHub(version string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		version:    version,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled or Stop is
// called, closing every client connection. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		h.closeAll()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			return nil

		case <-h.quit:
			h.logger.Info("Hub stopped")
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if data, err := h.connectMessage(client, count); err == nil {
				h.deliver(client, data)
			}

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if msg.owner == "" || client.ownerID == msg.owner {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range targets {
				h.deliver(client, msg.data)
			}
		}
	}
}

// deliver queues data on the client's send buffer. A client whose buffer is
// full is disconnected.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
		h.messagesSent.Add(1)
	default:
		h.messagesDropped.Add(1)
		h.logger.Warn("Client buffer full, disconnecting",
			slog.String("client_id", client.id))
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Stop terminates Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Metrics returns a snapshot of the hub counters
func (h *Hub) Metrics() HubMetrics {
	return HubMetrics{
		ActiveClients:    h.ClientCount(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		MessagesDropped:  h.messagesDropped.Load(),
	}
}

// PublishUploadStatus broadcasts an upload.status event to the clients
// watching the upload's owner. It never blocks on slow clients; when the hub
// queue is full the event is dropped.
func (h *Hub) PublishUploadStatus(ctx context.Context, status events.UploadStatus) {
	data, err := h.marshal(ctx, events.MessageTypeUploadStatus, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to marshal upload status",
			slog.String("upload_id", status.UploadID),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{owner: status.OwnerID, data: data}:
	case <-h.done:
	default:
		h.messagesDropped.Add(1)
		h.logger.WarnContext(ctx, "Broadcast queue full, dropping upload status",
			slog.String("upload_id", status.UploadID))
	}
}

func (h *Hub) connectMessage(client *Client, count int) ([]byte, error) {
	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	return h.marshal(ctx, events.MessageTypeConnect, events.SystemStatus{
		Status:  "connected",
		Version: h.version,
		Clients: count,
	})
}

func (h *Hub) marshal(ctx context.Context, typ events.MessageType, data interface{}) ([]byte, error) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      typ,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	}
	return json.Marshal(msg)
}
