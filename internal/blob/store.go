// Package blob stores bridge photos in an S3-compatible bucket (AWS S3 or
// MinIO). Objects are keyed jembatan/<bridgeID>/<fileName> and addressed
// by public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// KeyPrefix is the first segment of every photo key.
const KeyPrefix = "jembatan"

const defaultRegion = "us-east-1"

// ErrForeignURL is returned when deleting a URL this store did not issue.
var ErrForeignURL = errors.New("photo URL does not belong to this bucket")

// Store implements types.PhotoStore.
type Store struct {
	client *s3.Client
	bucket string
	base   string
}

// New creates a store from cfg. Credentials come from the default AWS
// chain (environment, shared files, instance roles).
func New(ctx context.Context, cfg types.PhotoConfig) (*Store, error) {
	if !cfg.Enabled() {
		return nil, types.ErrPhotosUnavailable
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newStore(client, cfg)
}

func newStore(client *s3.Client, cfg types.PhotoConfig) (*Store, error) {
	base, err := publicBase(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, bucket: cfg.Bucket, base: base}, nil
}

// publicBase returns the URL prefix objects are served under.
func publicBase(cfg types.PhotoConfig) (string, error) {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/"), nil
	}
	if cfg.Endpoint == "" {
		region := cfg.Region
		if region == "" {
			region = defaultRegion
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region), nil
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid photo endpoint %q", cfg.Endpoint)
	}
	if cfg.PathStyle {
		return strings.TrimRight(u.String(), "/") + "/" + cfg.Bucket, nil
	}
	return fmt.Sprintf("%s://%s.%s", u.Scheme, cfg.Bucket, u.Host), nil
}

// Key returns the object key for a bridge photo. Directory components of
// fileName are dropped.
func Key(bridgeID, fileName string) string {
	return path.Join(KeyPrefix, bridgeID, path.Base("/"+fileName))
}

// URL returns the public URL of a key.
func (s *Store) URL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.base + "/" + strings.Join(segments, "/")
}

// KeyFromURL reverses URL.
func (s *Store) KeyFromURL(rawURL string) (string, error) {
	rest, ok := strings.CutPrefix(rawURL, s.base+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	return key, nil
}

// Upload implements types.PhotoStore. An existing object with the same
// key is overwritten.
func (s *Store) Upload(ctx context.Context, bridgeID, fileName string, r io.Reader, contentType string) (string, error) {
	if bridgeID == "" {
		return "", types.ErrInvalidID
	}
	key := Key(bridgeID, fileName)
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete implements types.PhotoStore.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	key, err := s.KeyFromURL(rawURL)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
