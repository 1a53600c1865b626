package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Provider issues SDK-presigned PUT/GET URLs against one bucket and
// streams downloads through GetObject.
type S3Provider struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
	cfg       Config
	logger    zerolog.Logger
}

func NewS3Provider(ctx context.Context, cfg Config, logger zerolog.Logger) (*S3Provider, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires S3_BUCKET")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Provider{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		keyPrefix: strings.Trim(cfg.S3KeyPrefix, "/"),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func (p *S3Provider) GetUploadURL(ctx context.Context, relativePath, contentType string) (string, error) {
	if err := validatePath(relativePath); err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(relativePath)),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := p.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(p.cfg.URLTTL))
	if err != nil {
		return "", fmt.Errorf("presigning put: %w", err)
	}
	return req.URL, nil
}

func (p *S3Provider) GetFile(ctx context.Context, relativePath string) (*Object, error) {
	if err := validatePath(relativePath); err != nil {
		return nil, err
	}
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(relativePath)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching object: %w", err)
	}
	obj := &Object{Body: out.Body}
	if out.ContentType != nil {
		obj.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		obj.ContentLength = *out.ContentLength
	}
	return obj, nil
}

// NormalizePath recovers the object path from a presigned URL. Both
// virtual-hosted (bucket.s3.region.amazonaws.com/key) and path-style
// (host/bucket/key) URLs are handled; the configured key prefix is
// stripped back off.
func (p *S3Provider) NormalizePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(u.Host, p.bucket+".") {
		// path-style: first path segment is the bucket
		key = strings.TrimPrefix(key, p.bucket+"/")
	}
	if p.keyPrefix != "" {
		key = strings.TrimPrefix(key, p.keyPrefix+"/")
	}
	if err := validatePath(key); err != nil {
		return "", err
	}
	return key, nil
}

func (p *S3Provider) key(relativePath string) string {
	if p.keyPrefix == "" {
		return relativePath
	}
	return p.keyPrefix + "/" + relativePath
}
