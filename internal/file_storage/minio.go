package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// MinioStore keeps templates and generated certificates in one bucket.
// Objects are never overwritten.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.SugaredLogger
}

var _ certgen.ObjectStore = (*MinioStore)(nil)

func NewMinioStore(client *minio.Client, cfg *config.MinioConfig, logger *zap.SugaredLogger) *MinioStore {
	return &MinioStore{
		client:  client,
		bucket:  cfg.BUCKET,
		baseURL: PublicBaseURL(cfg),
		logger:  logger,
	}
}

// PublicBaseURL is where objects of the bucket can be fetched without credentials.
func PublicBaseURL(cfg *config.MinioConfig) string {
	if cfg.PUBLIC_URL != "" {
		return strings.TrimSuffix(cfg.PUBLIC_URL, "/")
	}

	scheme := "http"
	if cfg.USE_SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.ENDPOINT, cfg.BUCKET)
}

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// EnsureBucket creates the bucket when missing and allows anonymous reads of its
// objects, certificate links are shared with participants.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if !exists {
		s.logger.Infof("Creating bucket %s", s.bucket)
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}

	return s.client.SetBucketPolicy(ctx, s.bucket, fmt.Sprintf(publicReadPolicy, s.bucket))
}

// Upload never overwrites: the put carries If-None-Match so a key written
// concurrently by another worker fails with certgen.ErrObjectExists.
func (s *MinioStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	opts.SetMatchETagExcept("*")

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if isPreconditionFailed(err) {
		return fmt.Errorf("%w: %s", certgen.ErrObjectExists, key)
	}
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}

	s.logger.Debugf("Uploaded %s (%d bytes)", key, len(data))
	return nil
}

func isPreconditionFailed(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "PreconditionFailed" || resp.StatusCode == http.StatusPreconditionFailed
}

func (s *MinioStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return io.ReadAll(obj)
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStore) PublicURL(key string) string {
	return s.baseURL + "/" + escapeKey(key)
}

// KeyFromURL returns the object key of a link produced by PublicURL, or false
// for links that point elsewhere, e.g. bulk imported certificates.
func (s *MinioStore) KeyFromURL(link string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(link, prefix) {
		return "", false
	}

	key, err := url.PathUnescape(strings.TrimPrefix(link, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
