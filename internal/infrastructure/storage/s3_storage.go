package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
)

// S3Storage signs and manages uploads on S3-compatible storage.
type S3Storage struct {
	bucket    string
	client    *s3.Client
	presigner *s3.PresignClient
	log       zerolog.Logger
	now       func() time.Time
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	// The host is part of the signature, so URLs handed to browsers must be
	// signed against the endpoint the browser will reach.
	presignClient := client
	if cfg.S3PublicEndpoint != "" {
		presignClient = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.S3UsePathStyle
			o.BaseEndpoint = aws.String(cfg.S3PublicEndpoint)
		})
	}

	logger.Info().
		Str("bucket", cfg.S3Bucket).
		Str("endpoint", cfg.S3Endpoint).
		Str("public_endpoint", cfg.S3PublicEndpoint).
		Msg("s3 storage configured")

	return &S3Storage{
		bucket:    cfg.S3Bucket,
		client:    client,
		presigner: s3.NewPresignClient(presignClient),
		log:       logger,
		now:       time.Now,
	}, nil
}

func (s *S3Storage) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*upload.SignedURL, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &upload.SignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: s.now().Add(ttl).UTC(),
		Headers:   clientHeaders(req.SignedHeader),
	}, nil
}

func (s *S3Storage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*upload.SignedURL, error) {
	req, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign upload part: %w", err)
	}

	return &upload.SignedURL{
		URL:        req.URL,
		Method:     req.Method,
		Key:        key,
		PartNumber: partNumber,
		ExpiresAt:  s.now().Add(ttl).UTC(),
		Headers:    clientHeaders(req.SignedHeader),
	}, nil
}

func (s *S3Storage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", classifyS3Error(err)
	}
	return aws.ToString(out.UploadId), nil
}

func (s *S3Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []upload.Part) (string, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", classifyS3Error(err)
	}
	return aws.ToString(out.Location), nil
}

func (s *S3Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return classifyS3Error(err)
}

// DeleteObject removes key. Deleting a missing key succeeds.
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return classifyS3Error(err)
	}
	return nil
}

// Health performs a HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}

	var noSuchUpload *types.NoSuchUpload
	if errors.As(err, &noSuchUpload) {
		return errors.Join(upload.ErrSessionNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if classified := classifyCode(apiErr.ErrorCode()); classified != nil {
			return errors.Join(classified, err)
		}
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		if classified := classifyStatus(respErr.HTTPStatusCode()); classified != nil {
			return errors.Join(classified, err)
		}
	}
	return errors.Join(upload.ErrBackendUnavailable, err)
}

// classifyCode maps S3 error codes shared by every S3-compatible backend.
func classifyCode(code string) error {
	switch code {
	case "NoSuchUpload":
		return upload.ErrSessionNotFound
	case "InvalidPart", "InvalidPartOrder", "EntityTooSmall":
		return upload.ErrPartMismatch
	case "RequestTimeout", "SlowDown", "InternalError", "ServiceUnavailable":
		return upload.ErrBackendUnavailable
	case "AccessDenied", "NoSuchBucket", "InvalidBucketName", "InvalidArgument", "InvalidRequest",
		"InvalidAccessKeyId", "SignatureDoesNotMatch", "MethodNotAllowed", "NotImplemented":
		return upload.ErrBackendRejected
	default:
		return nil
	}
}

// classifyStatus treats any other client error as permanent. 408 and 429
// stay retryable.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return upload.ErrBackendUnavailable
	case status >= 400 && status < 500:
		return upload.ErrBackendRejected
	default:
		return nil
	}
}

// clientHeaders returns the signed headers the client must replay, minus
// those a browser sets on its own.
func clientHeaders(signed http.Header) map[string]string {
	headers := make(map[string]string, len(signed))
	for name, values := range signed {
		switch strings.ToLower(name) {
		case "host", "content-length":
			continue
		}
		if len(values) > 0 {
			headers[http.CanonicalHeaderKey(name)] = values[0]
		}
	}
	return headers
}
