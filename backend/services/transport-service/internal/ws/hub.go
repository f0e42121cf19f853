package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/metrics"
	"transporte/backend/services/transport-service/internal/models"
)

// Hub tracks subscriber connections and fans out ingestion events.
type Hub struct {
	mu           sync.RWMutex
	connections  map[uuid.UUID]*Connection
	pingInterval time.Duration
	logger       *zap.Logger
}

// NewHub builds the subscriber registry.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections:  make(map[uuid.UUID]*Connection),
		pingInterval: pingInterval,
		logger:       logger.With(zap.String("component", "ws_hub")),
	}
}

// Add registers new connection.
func (h *Hub) Add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
	metrics.WebSocketClients.Set(float64(len(h.connections)))
}

// Remove unregisters a connection. After it returns no broadcast reaches conn.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
	metrics.WebSocketClients.Set(float64(len(h.connections)))
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish broadcasts an event to every subscriber without blocking.
func (h *Hub) Publish(event models.IngestionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(data)
	}
}

// Start runs the keep-alive loop until ctx is done.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			for _, conn := range h.connections {
				conn.Send(nil)
			}
			h.mu.RUnlock()
		}
	}
}
