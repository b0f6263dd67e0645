package upload

import (
	"context"
	"errors"

	"learnhub/upload-broker/internal/utils/platformerrors"
)

// Storage adapters classify backend failures into these sentinels.
var (
	ErrSessionNotFound    = errors.New("multipart session not found")
	ErrPartMismatch       = errors.New("part list does not match the uploaded parts")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrBackendRejected marks a request the backend refused for a reason
	// retrying will not fix: bad credentials, a missing bucket, a malformed call.
	ErrBackendRejected = errors.New("storage backend rejected the request")
)

// backendError converts a storage failure into the error returned to callers.
func backendError(ctx context.Context, err error, message string) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"upload session not found", err, "0e9a4c1b-6d2f-4b8e-a3c5-7f1d9b2e4a60")
	case errors.Is(err, ErrPartMismatch):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"uploaded parts do not match the part list", err, "4d2b8f6e-1a3c-4e5d-9b7a-2c4e6f8a0b1d")
	case errors.Is(err, ErrBackendRejected):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			message, err, "6f8a0c2e-4b1d-4d7f-9a3e-8c5b1d7f2a94")
	case errors.Is(err, context.Canceled):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			"request cancelled", err, "b7c9e1a3-5d2f-4b6a-8c0e-3f5a7b9d1c2e")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			message, err, "a1c3e5f7-9b2d-4f6a-8e0c-5b7d9f1a3c4e")
	}
}
