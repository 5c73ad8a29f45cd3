package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOStore struct {
	client *minio.Client
	bucket string
}

var _ BlobStore = (*MinIOStore)(nil)

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOStore) Store(ctx context.Context, r io.Reader, size int64, contentType string) (StoredObject, error) {
	ref := uuid.New().String()
	digest := newDigestReader(r)

	info, err := m.client.PutObject(ctx, m.bucket, ref, digest, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_store_failed", err, map[string]interface{}{
			"ref":          ref,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return StoredObject{}, err
	}

	logger.Info("minio_store_success", map[string]interface{}{
		"ref":    ref,
		"size":   info.Size,
		"bucket": m.bucket,
	})

	return StoredObject{Ref: ref, ContentHash: digest.Sum(), Size: info.Size}, nil
}

func (m *MinIOStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("minio_open_failed", err, map[string]interface{}{
			"ref":    ref,
			"bucket": m.bucket,
		})
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrRefNotFound
		}
		logger.Error("minio_open_stat_failed", err, map[string]interface{}{
			"ref":    ref,
			"bucket": m.bucket,
		})
		return nil, err
	}
	return obj, nil
}

func (m *MinIOStore) Delete(ctx context.Context, ref string) error {
	err := m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"ref":    ref,
			"bucket": m.bucket,
		})
		return err
	}
	return nil
}

func (m *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}
