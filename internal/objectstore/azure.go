package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/rs/zerolog"
)

// AzureProvider issues SAS-scoped upload URLs for one container and
// streams downloads through the blob client.
type AzureProvider struct {
	client     *azblob.Client
	credential *azblob.SharedKeyCredential
	serviceURL string
	container  string
	ttl        time.Duration
	logger     zerolog.Logger
}

func NewAzureProvider(cfg Config, logger zerolog.Logger) (*AzureProvider, error) {
	if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
	}
	credential, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure client: %w", err)
	}
	return &AzureProvider{
		client:     client,
		credential: credential,
		serviceURL: serviceURL,
		container:  cfg.AzureContainer,
		ttl:        cfg.URLTTL,
		logger:     logger,
	}, nil
}

// GetUploadURL issues a SAS token scoped to container+blob with create
// and write permission only, bounded by the configured TTL.
func (p *AzureProvider) GetUploadURL(_ context.Context, relativePath, _ string) (string, error) {
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now.Add(-5 * time.Minute),
		ExpiryTime:    now.Add(p.ttl),
		Permissions:   (&sas.BlobPermissions{Create: true, Write: true}).String(),
		ContainerName: p.container,
		BlobName:      relativePath,
	}
	params, err := values.SignWithSharedKey(p.credential)
	if err != nil {
		return "", fmt.Errorf("signing sas: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s?%s", p.serviceURL, p.container, escapePath(relativePath), params.Encode()), nil
}

// escapePath percent-escapes each path segment so the issued URL
// decodes back to the exact blob path. Without it a segment containing
// reserved characters such as % would normalize to a different object.
func escapePath(relativePath string) string {
	segments := strings.Split(relativePath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (p *AzureProvider) GetFile(ctx context.Context, relativePath string) (*Object, error) {
	if err := validatePath(relativePath); err != nil {
		return nil, err
	}
	resp, err := p.client.DownloadStream(ctx, p.container, relativePath, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("downloading blob: %w", err)
	}
	obj := &Object{Body: resp.Body}
	if resp.ContentType != nil {
		obj.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		obj.ContentLength = *resp.ContentLength
	}
	return obj, nil
}

// NormalizePath recovers the blob path from a URL this provider issued:
// the path segments after the container name.
func (p *AzureProvider) NormalizePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	trimmed := strings.TrimPrefix(u.Path, "/")
	blob := strings.TrimPrefix(trimmed, p.container+"/")
	if blob == trimmed {
		return "", fmt.Errorf("url does not reference container %q: %s", p.container, rawURL)
	}
	if err := validatePath(blob); err != nil {
		return "", err
	}
	return blob, nil
}
