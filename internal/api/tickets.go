package api

import (
	"encoding/json"
	"net/http"

	"github.com/luminadesk/backend/internal/router"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// TicketHandler exposes the automation core to the CRUD layer. The CRUD
// service calls it on ticket create and update with the ticket and the
// current agent roster; the response is the engine's decision.
type TicketHandler struct {
	router *router.Router
	logger zerolog.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(r *router.Router, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{router: r, logger: logger}
}

type processRequest struct {
	Ticket types.Ticket  `json:"ticket"`
	Agents []types.Agent `json:"agents"`
}

// ProcessTicket runs the rule engine for a ticket payload
func (h *TicketHandler) ProcessTicket(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticket.ID == "" {
		writeError(w, http.StatusBadRequest, "ticket id is required")
		return
	}

	result := h.router.ProcessTicket(r.Context(), req.Ticket, req.Agents)

	h.logger.Debug().
		Str("ticket_id", req.Ticket.ID).
		Str("assigned_agent", result.AssignedAgentID).
		Bool("escalated", result.Escalated).
		Msg("ticket processed")

	writeJSON(w, http.StatusOK, result)
}
