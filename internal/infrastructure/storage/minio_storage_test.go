package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/upload-broker/internal/domain/upload"
)

func TestMinioPresign(t *testing.T) {
	cfg := s3TestConfig()
	cfg.StorageBackend = "minio"
	store, err := NewMinioStorage(cfg, zerolog.Nop())
	require.NoError(t, err)

	put, err := store.PresignPut(context.Background(), testKey, "video/mp4", 1024, 10*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(put.URL)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/learnhub-assets/"+testKey, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-type")
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-length")
	assert.NotContains(t, put.Headers, "Content-Length")
	assert.Equal(t, "video/mp4", put.Headers["Content-Type"])

	part, err := store.PresignUploadPart(context.Background(), testKey, "mpu-1", 3, time.Hour)
	require.NoError(t, err)
	u, err = url.Parse(part.URL)
	require.NoError(t, err)
	assert.Equal(t, "3", u.Query().Get("partNumber"))
	assert.Equal(t, "mpu-1", u.Query().Get("uploadId"))
	assert.Equal(t, int32(3), part.PartNumber)
}

func TestMinioEndpoint(t *testing.T) {
	endpoint, secure := minioEndpoint("http://minio:9000/", true)
	assert.Equal(t, "minio:9000", endpoint)
	assert.False(t, secure)

	endpoint, secure = minioEndpoint("https://files.learnhub.test", false)
	assert.Equal(t, "files.learnhub.test", endpoint)
	assert.True(t, secure)

	endpoint, secure = minioEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", endpoint)
	assert.True(t, secure)
}

func TestClassifyMinioError(t *testing.T) {
	assert.NoError(t, classifyMinioError(nil))
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{Code: "NoSuchUpload"}), upload.ErrSessionNotFound)
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{Code: "InvalidPart"}), upload.ErrPartMismatch)
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}), upload.ErrBackendRejected)
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}), upload.ErrBackendRejected)
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{StatusCode: http.StatusMethodNotAllowed}), upload.ErrBackendRejected)
	assert.ErrorIs(t, classifyMinioError(minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}), upload.ErrBackendUnavailable)
	assert.ErrorIs(t, classifyMinioError(errors.New("connection reset")), upload.ErrBackendUnavailable)
}
