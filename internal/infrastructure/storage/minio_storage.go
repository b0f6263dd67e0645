package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
)

// MinioStorage signs and manages uploads through the MinIO client.
type MinioStorage struct {
	bucket    string
	core      *minio.Core
	presigner *minio.Core
	log       zerolog.Logger
	now       func() time.Time
}

func NewMinioStorage(cfg *config.Config, log zerolog.Logger) (*MinioStorage, error) {
	logger := log.With().Str("component", "minio-storage").Logger()

	core, err := newMinioCore(cfg, cfg.S3Endpoint)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	presigner := core
	if cfg.S3PublicEndpoint != "" {
		presigner, err = newMinioCore(cfg, cfg.S3PublicEndpoint)
		if err != nil {
			return nil, fmt.Errorf("create minio presign client: %w", err)
		}
	}

	logger.Info().
		Str("bucket", cfg.S3Bucket).
		Str("endpoint", cfg.S3Endpoint).
		Str("public_endpoint", cfg.S3PublicEndpoint).
		Msg("minio storage configured")

	return &MinioStorage{
		bucket:    cfg.S3Bucket,
		core:      core,
		presigner: presigner,
		log:       logger,
		now:       time.Now,
	}, nil
}

func newMinioCore(cfg *config.Config, rawEndpoint string) (*minio.Core, error) {
	endpoint, secure := minioEndpoint(rawEndpoint, cfg.S3UseSSL)
	lookup := minio.BucketLookupDNS
	if cfg.S3UsePathStyle {
		lookup = minio.BucketLookupPath
	}
	// Setting Region avoids a GetBucketLocation round-trip before signing.
	return minio.NewCore(endpoint, &minio.Options{
		Creds:        miniocreds.NewStaticV4(cfg.S3AccessKeyID, cfg.S3SecretKey, ""),
		Secure:       secure,
		Region:       cfg.S3Region,
		BucketLookup: lookup,
	})
}

// minioEndpoint accepts both "host:port" and full URLs.
func minioEndpoint(raw string, useSSL bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	default:
		return strings.TrimSuffix(raw, "/"), useSSL
	}
}

func (m *MinioStorage) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*upload.SignedURL, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	// Signed so the backend refuses a body that differs from the declared size.
	headers.Set("Content-Length", strconv.FormatInt(size, 10))

	u, err := m.presigner.PresignHeader(ctx, http.MethodPut, m.bucket, key, ttl, nil, headers)
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &upload.SignedURL{
		URL:       u.String(),
		Method:    http.MethodPut,
		Key:       key,
		ExpiresAt: m.now().Add(ttl).UTC(),
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

func (m *MinioStorage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*upload.SignedURL, error) {
	params := url.Values{}
	params.Set("partNumber", strconv.Itoa(int(partNumber)))
	params.Set("uploadId", uploadID)

	u, err := m.presigner.Presign(ctx, http.MethodPut, m.bucket, key, ttl, params)
	if err != nil {
		return nil, fmt.Errorf("presign upload part: %w", err)
	}

	return &upload.SignedURL{
		URL:        u.String(),
		Method:     http.MethodPut,
		Key:        key,
		PartNumber: partNumber,
		ExpiresAt:  m.now().Add(ttl).UTC(),
	}, nil
}

func (m *MinioStorage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	uploadID, err := m.core.NewMultipartUpload(ctx, m.bucket, key, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", classifyMinioError(err)
	}
	return uploadID, nil
}

func (m *MinioStorage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []upload.Part) (string, error) {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{PartNumber: int(p.PartNumber), ETag: p.ETag})
	}

	info, err := m.core.CompleteMultipartUpload(ctx, m.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	if err != nil {
		return "", classifyMinioError(err)
	}
	return info.Location, nil
}

func (m *MinioStorage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	return classifyMinioError(m.core.AbortMultipartUpload(ctx, m.bucket, key, uploadID))
}

// DeleteObject removes key. Deleting a missing key succeeds.
func (m *MinioStorage) DeleteObject(ctx context.Context, key string) error {
	err := m.core.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return classifyMinioError(err)
}

// Health checks that the bucket exists.
func (m *MinioStorage) Health(ctx context.Context) error {
	ok, err := m.core.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

func classifyMinioError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if classified := classifyCode(resp.Code); classified != nil {
		return errors.Join(classified, err)
	}
	if classified := classifyStatus(resp.StatusCode); classified != nil {
		return errors.Join(classified, err)
	}
	return errors.Join(upload.ErrBackendUnavailable, err)
}
