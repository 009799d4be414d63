package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
)

// MinioStore keeps media library objects in a bucket under a key prefix.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// NewMinio buat koneksi MinIO
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}
	return &MinioStore{client: cli, bucketName: bucket}, nil
}

// WithPrefix returns a view of the same bucket scoped to prefix.
func (s *MinioStore) WithPrefix(prefix string) *MinioStore {
	c := *s
	c.prefix = prefix
	return &c
}

func (s *MinioStore) object(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *MinioStore) PutFile(ctx context.Context, localPath, key string) error {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.FPutObject(ctx, s.bucketName, s.object(key), localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

type minioObject struct {
	*minio.Object
	modTime time.Time
}

func (o minioObject) ModTime() time.Time { return o.modTime }

func (s *MinioStore) Open(ctx context.Context, key string) (media.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject malas; error baru muncul saat Stat
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, media.ErrNotFound
		}
		return nil, err
	}
	return minioObject{Object: obj, modTime: st.LastModified}, nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, s.object(key), minio.RemoveObjectOptions{})
}
