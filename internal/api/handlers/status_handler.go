package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

const statusInterval = 5 * time.Second

type StatusHandler struct {
	store   *store.Store
	backend *mlbackend.Client
}

func NewStatusHandler(st *store.Store, backend *mlbackend.Client) *StatusHandler {
	return &StatusHandler{
		store:   st,
		backend: backend,
	}
}

// HandleConnection pushes a dashboard status snapshot on connect and then
// every statusInterval until the client goes away.
func (h *StatusHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Status WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("Status WebSocket connection closed")
	}()

	if err := h.sendSnapshot(c); err != nil {
		logger.Error("Failed to send status snapshot", zap.Error(err))
		return
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := h.sendSnapshot(c); err != nil {
			return
		}
	}
}

func (h *StatusHandler) sendSnapshot(c *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(context.Background(), statusInterval)
	defer cancel()

	snapshot := map[string]interface{}{
		"type":      "status",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := h.backend.Health(ctx); err != nil {
		snapshot["backend"] = "unreachable"
	} else {
		snapshot["backend"] = "ok"
	}

	if n, err := h.store.CountModels(ctx); err == nil {
		snapshot["models"] = n
	}
	if n, err := h.store.CountClassifications(ctx); err == nil {
		snapshot["classifications"] = n
	}
	if n, err := h.store.CountDatasetRecords(ctx); err == nil {
		snapshot["dataset_records"] = n
	}

	return c.WriteJSON(snapshot)
}
