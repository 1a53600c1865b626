package api

import (
	"encoding/json"
	"net/http"

	"github.com/luminadesk/backend/internal/mailer"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// EmailHandler exposes the message dispatcher for direct sends
type EmailHandler struct {
	dispatcher *mailer.Dispatcher
	fromAddr   string
	logger     zerolog.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(dispatcher *mailer.Dispatcher, fromAddr string, logger zerolog.Logger) *EmailHandler {
	return &EmailHandler{dispatcher: dispatcher, fromAddr: fromAddr, logger: logger}
}

// SendEmail dispatches one email through the configured provider chain.
// The dispatcher never errors; success is a boolean in the response.
func (h *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var data types.EmailData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if data.To == "" {
		writeError(w, http.StatusBadRequest, "recipient is required")
		return
	}
	if data.From == "" {
		data.From = h.fromAddr
	}

	sent := h.dispatcher.SendEmail(r.Context(), data)
	writeJSON(w, http.StatusOK, map[string]any{"sent": sent})
}
