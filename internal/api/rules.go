package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/luminadesk/backend/internal/storage"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// RuleHandler manages the automation rule set
type RuleHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(store storage.Store, logger zerolog.Logger) *RuleHandler {
	return &RuleHandler{store: store, logger: logger}
}

// ListRules returns every rule, active or not
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListRules(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list rules")
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// CreateRule validates and persists a new rule. The tagged-union
// decoding of conditions and the action happens in the rule's
// UnmarshalJSON; an unknown kind is a 400 here, not a silent skip.
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule types.AutomationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule: "+err.Error())
		return
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	if err := h.store.SaveRule(r.Context(), rule); err != nil {
		h.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to save rule")
		writeError(w, http.StatusInternalServerError, "failed to save rule")
		return
	}

	h.logger.Info().Str("rule_id", rule.ID).Str("name", rule.Name).Msg("rule created")
	writeJSON(w, http.StatusCreated, rule)
}

// SetRuleActive flips a rule's active flag without touching the rest of
// the rule
func (h *RuleHandler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetRuleActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		h.logger.Error().Err(err).Str("rule_id", id).Msg("failed to update rule")
		writeError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}

	h.logger.Info().Str("rule_id", id).Bool("active", req.Active).Msg("rule activation changed")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
}
