package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by GetFile when the object does not exist.
// It is distinct from transport or credential failures.
var ErrNotFound = errors.New("object not found")

// Object is a streamed download. The caller owns Body and must close
// it; implementations never buffer whole files in memory.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Provider is the capability contract one storage backend implements.
//
// NormalizePath is required to be a left inverse of GetUploadURL: for
// every valid relative path P, NormalizePath(GetUploadURL(P, ct)) == P.
// That round trip is what lets a client-submitted attachment URL be
// resolved back into a streamable path days later.
type Provider interface {
	GetUploadURL(ctx context.Context, relativePath, contentType string) (string, error)
	GetFile(ctx context.Context, relativePath string) (*Object, error)
	NormalizePath(rawURL string) (string, error)
}

// New creates the backend selected by cfg
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Provider, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalProvider(cfg, logger)
	case BackendS3:
		return NewS3Provider(ctx, cfg, logger)
	case BackendAzure:
		return NewAzureProvider(cfg, logger)
	case BackendFederated:
		return NewFederatedProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// validatePath rejects traversal attempts and malformed object paths.
// A logical path is always forward-slash separated and relative.
func validatePath(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("empty object path")
	}
	if strings.HasPrefix(relativePath, "/") {
		return fmt.Errorf("object path must be relative: %q", relativePath)
	}
	if strings.Contains(relativePath, "\\") {
		return fmt.Errorf("object path must use forward slashes: %q", relativePath)
	}
	cleaned := path.Clean(relativePath)
	if cleaned != relativePath {
		return fmt.Errorf("object path is not canonical: %q", relativePath)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("object path escapes the storage root: %q", relativePath)
	}
	return nil
}
