package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
)

const testKey = "courses/01j9zq4m7k3v8x2c5b6n1r0tyw-lesson.mp4"

func s3TestConfig() *config.Config {
	return &config.Config{
		S3Endpoint:     "http://localhost:9000",
		S3Region:       "us-east-1",
		S3Bucket:       "learnhub-assets",
		S3AccessKeyID:  "AKIDEXAMPLE",
		S3SecretKey:    "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		S3UsePathStyle: true,
	}
}

func TestS3PresignPut(t *testing.T) {
	store, err := NewS3Storage(context.Background(), s3TestConfig(), zerolog.Nop())
	require.NoError(t, err)

	signed, err := store.PresignPut(context.Background(), testKey, "video/mp4", 1024, 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/learnhub-assets/"+testKey, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-type")
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-length")
	assert.Equal(t, "PUT", signed.Method)
	assert.Equal(t, testKey, signed.Key)
	assert.Equal(t, "video/mp4", signed.Headers["Content-Type"])
	assert.NotContains(t, signed.Headers, "Host")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), signed.ExpiresAt, 5*time.Second)
}

func TestS3PresignUploadPartBindsSession(t *testing.T) {
	cfg := s3TestConfig()
	cfg.S3PublicEndpoint = "https://files.learnhub.test"
	store, err := NewS3Storage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	signed, err := store.PresignUploadPart(context.Background(), testKey, "mpu-1", 7, time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	assert.Equal(t, "files.learnhub.test", u.Host)
	assert.Equal(t, "7", u.Query().Get("partNumber"))
	assert.Equal(t, "mpu-1", u.Query().Get("uploadId"))
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, int32(7), signed.PartNumber)
}

func TestClassifyS3Error(t *testing.T) {
	assert.NoError(t, classifyS3Error(nil))
	assert.ErrorIs(t, classifyS3Error(&types.NoSuchUpload{}), upload.ErrSessionNotFound)
	assert.ErrorIs(t, classifyS3Error(&smithy.GenericAPIError{Code: "NoSuchUpload"}), upload.ErrSessionNotFound)
	assert.ErrorIs(t, classifyS3Error(&smithy.GenericAPIError{Code: "InvalidPartOrder"}), upload.ErrPartMismatch)
	assert.ErrorIs(t, classifyS3Error(&smithy.GenericAPIError{Code: "EntityTooSmall"}), upload.ErrPartMismatch)

	for _, code := range []string{"AccessDenied", "NoSuchBucket", "InvalidArgument", "SignatureDoesNotMatch"} {
		classified := classifyS3Error(&smithy.GenericAPIError{Code: code})
		assert.ErrorIs(t, classified, upload.ErrBackendRejected, code)
		assert.NotErrorIs(t, classified, upload.ErrBackendUnavailable, code)
	}
	assert.ErrorIs(t, classifyS3Error(&smithy.GenericAPIError{Code: "SlowDown"}), upload.ErrBackendUnavailable)

	assert.ErrorIs(t, classifyS3Error(statusError(http.StatusForbidden)), upload.ErrBackendRejected)
	assert.ErrorIs(t, classifyS3Error(statusError(http.StatusBadRequest)), upload.ErrBackendRejected)
	assert.ErrorIs(t, classifyS3Error(statusError(http.StatusTooManyRequests)), upload.ErrBackendUnavailable)
	assert.ErrorIs(t, classifyS3Error(statusError(http.StatusBadGateway)), upload.ErrBackendUnavailable)

	raw := errors.New("dial tcp: connection refused")
	classified := classifyS3Error(raw)
	assert.ErrorIs(t, classified, upload.ErrBackendUnavailable)
	assert.ErrorIs(t, classified, raw)
}

func statusError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("operation error S3"),
	}
}

func TestClientHeaders(t *testing.T) {
	headers := clientHeaders(map[string][]string{
		"Host":           {"localhost:9000"},
		"Content-Length": {"1024"},
		"content-type":   {"video/mp4"},
	})
	assert.Equal(t, map[string]string{"Content-Type": "video/mp4"}, headers)
}
