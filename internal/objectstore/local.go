package objectstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// LocalProvider stores objects on the local filesystem. There is no
// external signing authority, so upload URLs point at this process's
// own PUT endpoint and carry an HMAC signature over path and expiry
// that the endpoint verifies.
type LocalProvider struct {
	dir     string
	baseURL string
	secret  []byte
	ttl     time.Duration
	logger  zerolog.Logger
}

func NewLocalProvider(cfg Config, logger zerolog.Logger) (*LocalProvider, error) {
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("local storage requires OBJECT_SIGNING_SECRET")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &LocalProvider{
		dir:     cfg.LocalDir,
		baseURL: cfg.LocalBaseURL,
		secret:  []byte(cfg.SigningSecret),
		ttl:     cfg.URLTTL,
		logger:  logger,
	}, nil
}

// GetUploadURL issues a signed URL for the in-process PUT endpoint.
// The object path travels as a query parameter.
func (p *LocalProvider) GetUploadURL(_ context.Context, relativePath, contentType string) (string, error) {
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	exp := time.Now().Add(p.ttl).Unix()
	q := url.Values{}
	q.Set("path", relativePath)
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", p.sign(relativePath, exp))
	if contentType != "" {
		q.Set("contentType", contentType)
	}
	return p.baseURL + "/internal/objects/upload?" + q.Encode(), nil
}

// GetFile streams an object from disk
func (p *LocalProvider) GetFile(_ context.Context, relativePath string) (*Object, error) {
	if err := validatePath(relativePath); err != nil {
		return nil, err
	}
	full := filepath.Join(p.dir, filepath.FromSlash(relativePath))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return &Object{
		Body:          f,
		ContentType:   mime.TypeByExtension(filepath.Ext(relativePath)),
		ContentLength: info.Size(),
	}, nil
}

// NormalizePath recovers the object path from a URL this provider
// issued: the path query parameter.
func (p *LocalProvider) NormalizePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	relativePath := u.Query().Get("path")
	if relativePath == "" {
		return "", fmt.Errorf("url carries no object path: %s", rawURL)
	}
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	return relativePath, nil
}

// VerifyUploadToken checks the signature and expiry on an incoming
// upload request. Used by the PUT endpoint this provider's URLs target.
func (p *LocalProvider) VerifyUploadToken(relativePath string, exp int64, sig string) error {
	if err := validatePath(relativePath); err != nil {
		return err
	}
	if time.Now().Unix() > exp {
		return fmt.Errorf("upload url expired")
	}
	expected := p.sign(relativePath, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("invalid upload signature")
	}
	return nil
}

// SaveFile streams an upload body to disk
func (p *LocalProvider) SaveFile(relativePath string, body io.Reader) error {
	if err := validatePath(relativePath); err != nil {
		return err
	}
	full := filepath.Join(p.dir, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating object dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("creating object: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("writing object: %w", err)
	}
	return nil
}

func (p *LocalProvider) sign(relativePath string, exp int64) string {
	mac := hmac.New(sha256.New, p.secret)
	fmt.Fprintf(mac, "%s\n%d", relativePath, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
