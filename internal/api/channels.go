package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/luminadesk/backend/internal/audit"
	"github.com/luminadesk/backend/internal/channel"
	"github.com/luminadesk/backend/internal/storage"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// ChannelHandler manages channel configurations and their health
type ChannelHandler struct {
	store   storage.Store
	monitor *channel.Monitor
	sink    audit.Sink
	logger  zerolog.Logger
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(store storage.Store, monitor *channel.Monitor, sink audit.Sink, logger zerolog.Logger) *ChannelHandler {
	return &ChannelHandler{store: store, monitor: monitor, sink: sink, logger: logger}
}

// ListChannels returns every configured channel
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListChannelConfigs(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list channels")
		writeError(w, http.StatusInternalServerError, "failed to list channels")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": configs})
}

// SaveChannel creates or replaces a channel configuration. This is the
// credential-owning write path; it never touches the monitor-owned
// status fields of an existing config.
func (h *ChannelHandler) SaveChannel(w http.ResponseWriter, r *http.Request) {
	var cfg types.ChannelConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel config")
		return
	}
	if cfg.Type == "" {
		writeError(w, http.StatusBadRequest, "channel type is required")
		return
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	if existing, err := h.store.GetChannelConfig(r.Context(), cfg.ID); err == nil {
		cfg.Status = existing.Status
		cfg.ErrorMessage = existing.ErrorMessage
		cfg.LastErrorTime = existing.LastErrorTime
		cfg.LastSync = existing.LastSync
	}

	if err := h.store.SaveChannelConfig(r.Context(), cfg); err != nil {
		h.logger.Error().Err(err).Str("channel_id", cfg.ID).Msg("failed to save channel")
		writeError(w, http.StatusInternalServerError, "failed to save channel")
		return
	}

	h.logger.Info().Str("channel_id", cfg.ID).Str("type", string(cfg.Type)).Msg("channel saved")
	writeJSON(w, http.StatusOK, cfg)
}

// TestChannel runs a connection test for one channel and returns the
// result. The test never errors at the HTTP level; failures are part of
// the result payload.
func (h *ChannelHandler) TestChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cfg, err := h.store.GetChannelConfig(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "channel not found")
			return
		}
		h.logger.Error().Err(err).Str("channel_id", id).Msg("failed to load channel")
		writeError(w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	result := h.monitor.TestConnection(r.Context(), cfg)

	event := audit.NewEvent(audit.KindChannelTested)
	event.ChannelID = cfg.ID
	event.Detail = map[string]any{"type": cfg.Type, "success": result.Success}
	h.sink.Record(r.Context(), event)

	writeJSON(w, http.StatusOK, result)
}

// ChannelHealth returns the derived health classification for one
// channel. This is a pure read; nothing is persisted.
func (h *ChannelHandler) ChannelHealth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cfg, err := h.store.GetChannelConfig(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "channel not found")
			return
		}
		h.logger.Error().Err(err).Str("channel_id", id).Msg("failed to load channel")
		writeError(w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channelId": cfg.ID,
		"type":      cfg.Type,
		"health":    h.monitor.HealthStatus(cfg),
	})
}
