package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/customHttpClient"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	client *minio.Client
	bucket string
	logger *logger_i.Logger
}

// NewMinioStore connects to the object store and creates the bucket when it
// does not exist yet.
func NewMinioStore(ctx context.Context, settings config.Settings) (*MinioStore, error) {
	client, err := minio.New(settings.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(settings.MinioAccessKey, settings.MinioSecretKey, ""),
		Secure:    settings.MinioUseSSL,
		Transport: customHttpClient.GetTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	s := &MinioStore{
		client: client,
		bucket: settings.Bucket,
		logger: logger_i.NewLogger("BlobStore"),
	}

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.logger.Info("Created bucket", "bucket", s.bucket)
	}
	return s, nil
}

func (s *MinioStore) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(path, err)
	}
	return data, nil
}

func (s *MinioStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return names, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		names = append(names, obj.Key)
	}
	return names, nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *MinioStore) mapError(path string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return fmt.Errorf("get %s: %w", path, err)
}

func (s *MinioStore) Bucket() string {
	return s.bucket
}

// Client is exposed for bucket notifications.
func (s *MinioStore) Client() *minio.Client {
	return s.client
}
