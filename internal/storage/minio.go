package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/logger"
)

const defaultResumeBucket = "resumes"

// MinIO wraps the object store holding uploaded resume documents.
type MinIO struct {
	client        *minio.Client
	resumeBucket  string
	presignExpiry time.Duration
}

func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	bucket := cfg.ResumeBucket
	if bucket == "" {
		bucket = defaultResumeBucket
	}

	m := &MinIO{
		client:        client,
		resumeBucket:  bucket,
		presignExpiry: config.GetDuration(cfg.PresignExpiry, 15*time.Minute),
	}
	if err := m.ensureBucket(cfg.Location); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MinIO) ensureBucket(location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.resumeBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.resumeBucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.resumeBucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.resumeBucket, err)
	}
	logger.Info().Str("bucket", m.resumeBucket).Msg("created resume bucket")
	return nil
}

// StoreResume uploads a resume document and returns its object key. The key
// embeds a fresh UUID; the original filename survives only as the extension.
func (m *MinIO) StoreResume(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("resumes/%s%s", uuid.NewString(), ext)

	_, err := m.client.PutObject(ctx, m.resumeBucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("store resume %s: %w", key, err)
	}
	logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("resume stored")
	return key, nil
}

// FetchResume downloads a stored resume and reports its content type.
func (m *MinIO) FetchResume(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := m.client.GetObject(ctx, m.resumeBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("fetch resume %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read resume %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat resume %s: %w", key, err)
	}
	return data, stat.ContentType, nil
}

// PresignResume returns a time-limited download URL for a stored resume.
func (m *MinIO) PresignResume(ctx context.Context, key string) (string, error) {
	reqParams := make(url.Values)
	u, err := m.client.PresignedGetObject(ctx, m.resumeBucket, key, m.presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign resume %s: %w", key, err)
	}
	return u.String(), nil
}

// DeleteResume removes a stored resume, e.g. when its applicant is deleted.
func (m *MinIO) DeleteResume(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.resumeBucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete resume %s: %w", key, err)
	}
	return nil
}
