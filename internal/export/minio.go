package export

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultBucket = "wave-plans"

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{bucket: defaultBucket}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		if bucket != "" {
			c.bucket = bucket
		}
	}
}

func WithCredentials(accessKey, secretAccessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
		c.secretAccessKey = secretAccessKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

// Object describes a published plan document.
type Object struct {
	Bucket string
	Key    string
	Size   int64
}

// Publisher uploads rendered plans to a bucket, creating it on first use.
type Publisher struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioPublisher(opts ...MinioOpts) (*Publisher, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" {
		return nil, errors.New("object storage endpoint is required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create object storage client")
	}

	return &Publisher{cfg: cfg, client: client}, nil
}

func (p *Publisher) Bucket() string {
	return p.cfg.bucket
}

func (p *Publisher) Publish(ctx context.Context, key, contentType string, content []byte) (*Object, error) {
	exists, err := p.client.BucketExists(ctx, p.cfg.bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up bucket %s", p.cfg.bucket)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", p.cfg.bucket)
		}
		zap.S().Named("export").Infow("bucket created", "bucket", p.cfg.bucket)
	}

	info, err := p.client.PutObject(ctx, p.cfg.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upload %s", key)
	}

	return &Object{Bucket: info.Bucket, Key: info.Key, Size: info.Size}, nil
}
