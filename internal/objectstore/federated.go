package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FederatedProvider serves sandboxed runtime environments where the
// platform exposes object storage through a local identity sidecar.
// Before each signed-URL request it exchanges the runtime's identity
// for a short-lived token, then asks the sidecar to sign the actual
// storage URL.
type FederatedProvider struct {
	sidecar string
	bucket  string
	ttl     time.Duration
	client  *http.Client
	logger  zerolog.Logger
}

func NewFederatedProvider(cfg Config, logger zerolog.Logger) *FederatedProvider {
	return &FederatedProvider{
		sidecar: strings.TrimSuffix(cfg.SidecarEndpoint, "/"),
		bucket:  cfg.FederatedBucket,
		ttl:     cfg.URLTTL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (p *FederatedProvider) GetUploadURL(ctx context.Context, relativePath, contentType string) (string, error) {
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	return p.signURL(ctx, relativePath, http.MethodPut, contentType)
}

func (p *FederatedProvider) GetFile(ctx context.Context, relativePath string) (*Object, error) {
	if err := validatePath(relativePath); err != nil {
		return nil, err
	}
	signedURL, err := p.signURL(ctx, relativePath, http.MethodGet, "")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading object: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	return &Object{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// NormalizePath recovers the object path from a signed storage URL:
// the path segments after the bucket name.
func (p *FederatedProvider) NormalizePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	trimmed := strings.TrimPrefix(u.Path, "/")
	relativePath := strings.TrimPrefix(trimmed, p.bucket+"/")
	if relativePath == trimmed {
		return "", fmt.Errorf("url does not reference bucket %q: %s", p.bucket, rawURL)
	}
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	return relativePath, nil
}

// exchangeToken asks the sidecar for a short-lived storage token
func (p *FederatedProvider) exchangeToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sidecar+"/token", nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchanging identity token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange returned %d", resp.StatusCode)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token exchange returned an empty token")
	}
	return payload.Token, nil
}

func (p *FederatedProvider) signURL(ctx context.Context, relativePath, method, contentType string) (string, error) {
	token, err := p.exchangeToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"bucket":      p.bucket,
		"path":        relativePath,
		"method":      method,
		"contentType": contentType,
		"expiresAt":   time.Now().Add(p.ttl).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("encoding sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sidecar+"/object-storage/signed-url", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting signed url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signed-url request returned %d", resp.StatusCode)
	}
	var payload struct {
		SignedURL string `json:"signedUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding signed url: %w", err)
	}
	if payload.SignedURL == "" {
		return "", fmt.Errorf("sidecar returned an empty signed url")
	}
	return payload.SignedURL, nil
}
