package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/irwan019/GrkApp/internal/logger"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// MinioStorage saves exports addressed as s3://bucket/key, creating the
// bucket on first use.
type MinioStorage struct {
	client *minio.Client
	region string
	logger logger.Logger
}

func NewMinioStorage(opts MinioOptions, log logger.Logger) (*MinioStorage, error) {
	l := logger.Component(log, "minio_storage")

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to list Minio buckets: %w", err)
	}

	l.Info("Minio storage initialized successfully")
	return &MinioStorage{
		client: client,
		region: opts.Region,
		logger: l,
	}, nil
}

func (m *MinioStorage) Save(ctx context.Context, dest string, data io.Reader, size int64, contentType string) (string, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return "", err
	}
	if d.Scheme != SchemeS3 {
		return "", fmt.Errorf("minio storage cannot write %s", d)
	}

	if err := m.Upload(ctx, d.Bucket, d.Key, data, size, contentType); err != nil {
		return "", err
	}
	return d.String(), nil
}

func (m *MinioStorage) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		m.logger.Infof("Created bucket: %s", bucket)
	}

	info, err := m.client.PutObject(ctx, bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	m.logger.Infof("Uploaded %d bytes to bucket: %s, key: %s", info.Size, bucket, key)
	return nil
}

func (m *MinioStorage) HealthCheck(ctx context.Context) error {
	_, err := m.client.ListBuckets(ctx)
	return err
}
