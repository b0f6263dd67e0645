package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/upload-broker/internal/utils/platformerrors"
)

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	perr := platformerrors.GetPlatformError(err)
	require.NotNil(t, perr, "expected a platform error, got %v", err)
	assert.Equal(t, platformerrors.ErrorTypeValidation, perr.Type)
	assert.Equal(t, reason, perr.Reason())
}

func TestPolicySetValidate(t *testing.T) {
	policies := NewPolicySet(testConfig())
	ctx := context.Background()

	tests := []struct {
		name     string
		intent   UploadIntent
		protocol Protocol
		reason   string
	}{
		{
			name:     "unknown surface",
			intent:   UploadIntent{Surface: "banner", FileName: "a.png", ContentType: "image/png", Size: 10},
			protocol: ProtocolSimple,
			reason:   ReasonSurfaceUnknown,
		},
		{
			name:     "empty file name",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "   ", ContentType: "image/png", Size: 10},
			protocol: ProtocolSimple,
			reason:   ReasonFileNameEmpty,
		},
		{
			name:     "file name too long",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: string(make([]byte, 256)) + "a.png", ContentType: "image/png", Size: 10},
			protocol: ProtocolSimple,
			reason:   ReasonFileNameTooLong,
		},
		{
			name:     "unparseable content type",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "a.png", ContentType: "image", Size: 10},
			protocol: ProtocolSimple,
			reason:   ReasonContentTypeInvalid,
		},
		{
			name:     "executable disguised as avatar",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "me.png", ContentType: "application/x-msdownload", Size: 1024},
			protocol: ProtocolSimple,
			reason:   ReasonContentTypeNotAllowed,
		},
		{
			name:     "zero size",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "a.png", ContentType: "image/png", Size: 0},
			protocol: ProtocolSimple,
			reason:   ReasonSizeInvalid,
		},
		{
			name:     "oversized avatar",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "a.png", ContentType: "image/png", Size: 5*1024*1024 + 1},
			protocol: ProtocolSimple,
			reason:   ReasonSizeExceeded,
		},
		{
			name:     "multipart avatar",
			intent:   UploadIntent{Surface: SurfaceAvatar, FileName: "a.png", ContentType: "image/png", Size: 1024},
			protocol: ProtocolMultipart,
			reason:   ReasonMultipartNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := policies.Validate(ctx, tt.intent, tt.protocol)
			requireReason(t, err, tt.reason)
		})
	}
}

func TestPolicySetValidateNormalizesContentType(t *testing.T) {
	policies := NewPolicySet(testConfig())

	ct, err := policies.Validate(context.Background(), UploadIntent{
		Surface:     SurfaceCourseAsset,
		FileName:    "lecture.mp4",
		ContentType: "Video/MP4; codecs=avc1",
		Size:        1 << 30,
	}, ProtocolMultipart)

	require.NoError(t, err)
	assert.Equal(t, "video/mp4", ct)
}

func TestPolicyAllowsLegacyAliases(t *testing.T) {
	policies := NewPolicySet(testConfig())

	for _, alias := range []string{"image/jpg", "image/pjpeg", "IMAGE/JPG"} {
		ct, err := policies.Validate(context.Background(), UploadIntent{
			Surface: SurfaceAvatar, FileName: "me.jpg", ContentType: alias, Size: 1024,
		}, ProtocolSimple)
		require.NoError(t, err, alias)
		assert.Equal(t, "image/jpeg", ct, alias)
	}

	ct, err := policies.Validate(context.Background(), UploadIntent{
		Surface: SurfaceAvatar, FileName: "me.png", ContentType: "image/x-png", Size: 1024,
	}, ProtocolSimple)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = policies.Validate(context.Background(), UploadIntent{
		Surface: SurfaceAvatar, FileName: "notes.pdf", ContentType: "application/x-pdf", Size: 1024,
	}, ProtocolSimple)
	requireReason(t, err, ReasonContentTypeNotAllowed)
}

func TestPolicySetValidateSinglePutLimit(t *testing.T) {
	cfg := testConfig()
	cfg.CourseAssetMaxBytes = 10 * 1024 * 1024 * 1024
	policies := NewPolicySet(cfg)
	intent := UploadIntent{Surface: SurfaceCourseAsset, FileName: "big.mp4", ContentType: "video/mp4", Size: 6 * 1024 * 1024 * 1024}

	_, err := policies.Validate(context.Background(), intent, ProtocolSimple)
	requireReason(t, err, ReasonSinglePutTooLarge)

	_, err = policies.Validate(context.Background(), intent, ProtocolMultipart)
	assert.NoError(t, err)
}

func TestSizeAndTypeReasonsAreDistinct(t *testing.T) {
	policies := NewPolicySet(testConfig())

	_, sizeErr := policies.Validate(context.Background(), UploadIntent{
		Surface: SurfaceChatAttachment, FileName: "notes.pdf", ContentType: "application/pdf", Size: 11 * 1024 * 1024,
	}, ProtocolSimple)
	_, typeErr := policies.Validate(context.Background(), UploadIntent{
		Surface: SurfaceChatAttachment, FileName: "setup.exe", ContentType: "application/x-msdownload", Size: 1024,
	}, ProtocolSimple)

	requireReason(t, sizeErr, ReasonSizeExceeded)
	requireReason(t, typeErr, ReasonContentTypeNotAllowed)
}

func TestPolicySetAll(t *testing.T) {
	all := NewPolicySet(testConfig()).All()

	require.Len(t, all, 3)
	assert.Equal(t, SurfaceAvatar, all[0].Surface)
	assert.Equal(t, SurfaceChatAttachment, all[1].Surface)
	assert.Equal(t, SurfaceCourseAsset, all[2].Surface)
	assert.True(t, all[2].Multipart)
	assert.Contains(t, all[0].ContentTypes, "image/webp")
}
