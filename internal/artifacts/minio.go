package artifacts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultBucket = "sitegrader-screenshots"

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
		bucket: defaultBucket,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Uploader moves screenshot blobs into object storage and hands back the
// bucket/key location to record alongside the assessment.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (Location, error)
	Remove(ctx context.Context, key string) error
	Type() string
}

type Location struct {
	Bucket string
	Key    string
	Size   int64
}

type minioUploader struct {
	cfg    *minioConfig
	client *minio.Client
}

var _ Uploader = (*minioUploader)(nil)

func NewMinioUploader(opts ...MinioOpts) (*minioUploader, error) {
	cfg := newConfig(opts...)

	// Initialize minio client object.
	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &minioUploader{cfg: cfg, client: minioClient}, nil
}

func (u *minioUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (Location, error) {
	info, err := u.client.PutObject(ctx, u.cfg.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Location{}, fmt.Errorf("failed to upload artifact %s: %w", key, err)
	}

	return Location{Bucket: u.cfg.bucket, Key: info.Key, Size: info.Size}, nil
}

func (u *minioUploader) Remove(ctx context.Context, key string) error {
	return u.client.RemoveObject(ctx, u.cfg.bucket, key, minio.RemoveObjectOptions{})
}

func (u *minioUploader) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
