package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"audiopack/internal/config"
)

// ErrBucketMissing reports that the configured bucket does not exist.
var ErrBucketMissing = errors.New("bucket does not exist")

// digestMeta is the user metadata key carrying a file's xxHash digest.
const digestMeta = "Audiopack-Xxhash"

// Remote describes an object already in the bucket.
type Remote struct {
	Size int64
	// Digest is the xxHash recorded at upload, empty when none was stored.
	Digest string
}

// ObjectStore is the subset of an object store the publisher needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// Stat describes key, or returns found=false when it is absent.
	Stat(ctx context.Context, bucket, key string) (remote Remote, found bool, err error)
	// Upload stores path under key, recording digest when it is not empty.
	Upload(ctx context.Context, bucket, key, path, contentType, digest string) (int64, error)
}

// MinioStore implements ObjectStore with minio-go.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore builds a client from the publish settings.
func NewMinioStore(cfg config.Publish) (*MinioStore, error) {
	if !cfg.Configured() {
		return nil, errors.New("publish endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}

func (s *MinioStore) Stat(ctx context.Context, bucket, key string) (Remote, bool, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return Remote{}, false, nil
		}
		return Remote{}, false, err
	}
	remote := Remote{Size: info.Size}
	for k, v := range info.UserMetadata {
		if strings.EqualFold(k, digestMeta) {
			remote.Digest = v
		}
	}
	return remote, true, nil
}

func (s *MinioStore) Upload(ctx context.Context, bucket, key, path, contentType, digest string) (int64, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl(key),
	}
	if digest != "" {
		opts.UserMetadata = map[string]string{digestMeta: digest}
	}
	info, err := s.client.FPutObject(ctx, bucket, key, path, opts)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// cacheControl lets content addressed artifacts be cached forever while the
// atlas is always revalidated.
func cacheControl(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "no-cache"
	}
	return "public, max-age=31536000, immutable"
}
