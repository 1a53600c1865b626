package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/objectstore"
	"github.com/rs/zerolog"
)

// ObjectHandler issues signed upload URLs and streams downloads through
// the configured storage backend
type ObjectHandler struct {
	provider objectstore.Provider
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewObjectHandler creates a new ObjectHandler
func NewObjectHandler(provider objectstore.Provider, m *metrics.Metrics, logger zerolog.Logger) *ObjectHandler {
	return &ObjectHandler{provider: provider, metrics: m, logger: logger}
}

// GetUploadURL issues a time-limited signed upload URL for a relative
// object path
func (h *ObjectHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path        string `json:"path"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	uploadURL, err := h.provider.GetUploadURL(r.Context(), req.Path, req.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.RecordSignedURLIssued()

	writeJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": uploadURL,
		"path":      req.Path,
	})
}

// Download streams an object to the client without buffering it. A
// missing object is a 404; everything else is a 500.
func (h *ObjectHandler) Download(w http.ResponseWriter, r *http.Request) {
	relativePath := chi.URLParam(r, "*")

	obj, err := h.provider.GetFile(r.Context(), relativePath)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "object not found")
			return
		}
		h.logger.Error().Err(err).Str("path", relativePath).Msg("object download failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch object")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		// Headers are already out; all we can do is log
		h.logger.Warn().Err(err).Str("path", relativePath).Msg("object stream interrupted")
		return
	}
	h.metrics.RecordDownloadStreamed()
}

// LocalUploadHandler accepts the PUT side of locally signed upload
// URLs. It only exists when the local backend is active; its URL shape
// matches what LocalProvider.GetUploadURL issues.
type LocalUploadHandler struct {
	provider *objectstore.LocalProvider
	logger   zerolog.Logger
}

// NewLocalUploadHandler creates a new LocalUploadHandler
func NewLocalUploadHandler(provider *objectstore.LocalProvider, logger zerolog.Logger) *LocalUploadHandler {
	return &LocalUploadHandler{provider: provider, logger: logger}
}

// Upload verifies the signature and expiry and streams the body to disk
func (h *LocalUploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	relativePath := q.Get("path")
	sig := q.Get("sig")
	exp, err := strconv.ParseInt(q.Get("exp"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expiry")
		return
	}

	if err := h.provider.VerifyUploadToken(relativePath, exp, sig); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	if err := h.provider.SaveFile(relativePath, r.Body); err != nil {
		h.logger.Error().Err(err).Str("path", relativePath).Msg("object upload failed")
		writeError(w, http.StatusInternalServerError, "failed to store object")
		return
	}

	h.logger.Info().Str("path", relativePath).Msg("object uploaded")
	writeJSON(w, http.StatusOK, map[string]string{"path": relativePath})
}
