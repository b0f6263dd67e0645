package upload

import (
	"context"
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

const (
	// MaxFileNameBytes bounds the client-declared file name.
	MaxFileNameBytes = 255
	// MaxSinglePutBytes is the largest object the backend accepts in one PUT.
	MaxSinglePutBytes int64 = 5 * 1024 * 1024 * 1024
)

// Validation reasons reported to clients.
const (
	ReasonSurfaceUnknown        = "surface_unknown"
	ReasonFileNameEmpty         = "filename_empty"
	ReasonFileNameTooLong       = "filename_too_long"
	ReasonContentTypeInvalid    = "content_type_invalid"
	ReasonContentTypeNotAllowed = "content_type_not_allowed"
	ReasonSizeInvalid           = "size_invalid"
	ReasonSizeExceeded          = "size_exceeded"
	ReasonMultipartNotAllowed   = "multipart_not_allowed"
	ReasonSinglePutTooLarge     = "single_put_too_large"
	ReasonKeyInvalid            = "key_invalid"
	ReasonUploadIDMissing       = "upload_id_missing"
	ReasonPartNumberInvalid     = "part_number_invalid"
	ReasonPartsEmpty            = "parts_empty"
	ReasonETagMissing           = "etag_missing"
	ReasonPartDuplicate         = "part_duplicate"
)

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

var officeTypes = []string{
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// contentTypeAliases covers legacy names browsers and OS pickers still send
// that mimetype does not resolve.
var contentTypeAliases = map[string]string{
	"image/jpg":                    "image/jpeg",
	"image/pjpeg":                  "image/jpeg",
	"image/x-png":                  "image/png",
	"audio/mp3":                    "audio/mpeg",
	"audio/x-mp3":                  "audio/mpeg",
	"audio/mpeg3":                  "audio/mpeg",
	"application/x-pdf":            "application/pdf",
	"text/x-csv":                   "text/csv",
	"application/csv":              "text/csv",
	"application/x-zip-compressed": "application/zip",
}

// Policy is the set of constraints a surface places on an upload.
type Policy struct {
	Surface      Surface  `json:"surface"`
	MaxBytes     int64    `json:"max_bytes"`
	ContentTypes []string `json:"content_types"`
	Multipart    bool     `json:"multipart"`

	allowed map[string]struct{}
}

func newPolicy(surface Surface, maxBytes int64, multipart bool, groups ...[]string) *Policy {
	p := &Policy{
		Surface:   surface,
		MaxBytes:  maxBytes,
		Multipart: multipart,
		allowed:   make(map[string]struct{}),
	}
	for _, group := range groups {
		for _, ct := range group {
			if _, dup := p.allowed[ct]; dup {
				continue
			}
			p.allowed[ct] = struct{}{}
			p.ContentTypes = append(p.ContentTypes, ct)
		}
	}
	return p
}

// Allows reports whether contentType, or the canonical type it is an alias
// of, is on the allow-list. It returns the matching allow-list entry.
func (p *Policy) Allows(contentType string) (string, bool) {
	if _, ok := p.allowed[contentType]; ok {
		return contentType, true
	}
	if canonical, ok := contentTypeAliases[contentType]; ok {
		if _, ok := p.allowed[canonical]; ok {
			return canonical, true
		}
	}
	if m := mimetype.Lookup(contentType); m != nil {
		canonical, _, err := mime.ParseMediaType(m.String())
		if err == nil {
			if _, ok := p.allowed[canonical]; ok {
				return canonical, true
			}
		}
	}
	return "", false
}

// PolicySet holds the policy of every known surface.
type PolicySet struct {
	policies map[Surface]*Policy
}

// NewPolicySet builds the surface policies with ceilings taken from cfg.
func NewPolicySet(cfg *config.Config) *PolicySet {
	return &PolicySet{policies: map[Surface]*Policy{
		SurfaceAvatar: newPolicy(SurfaceAvatar, cfg.AvatarMaxBytes, false, imageTypes),
		SurfaceChatAttachment: newPolicy(SurfaceChatAttachment, cfg.ChatAttachmentMaxBytes, false,
			imageTypes,
			[]string{"application/pdf", "text/plain", "text/csv"},
			officeTypes,
			[]string{"application/zip", "application/x-7z-compressed", "application/vnd.rar", "application/x-rar-compressed", "application/gzip"},
			[]string{"audio/mpeg", "audio/wav", "audio/ogg", "audio/webm", "audio/mp4"},
			[]string{"video/mp4", "video/webm", "video/quicktime"},
		),
		SurfaceCourseAsset: newPolicy(SurfaceCourseAsset, cfg.CourseAssetMaxBytes, true,
			[]string{"video/mp4", "video/webm", "video/quicktime", "video/x-matroska"},
			[]string{"application/pdf"},
			officeTypes,
			[]string{"application/zip"},
			imageTypes,
		),
	}}
}

// Lookup returns the policy of surface.
func (s *PolicySet) Lookup(surface Surface) (*Policy, bool) {
	p, ok := s.policies[surface]
	return p, ok
}

// All returns every policy ordered by surface name.
func (s *PolicySet) All() []Policy {
	out := make([]Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Policy) int { return strings.Compare(string(a.Surface), string(b.Surface)) })
	return out
}

// Validate checks intent against its surface policy for the given protocol.
// On success it returns the normalized content type to sign with.
func (s *PolicySet) Validate(ctx context.Context, intent UploadIntent, protocol Protocol) (string, error) {
	policy, ok := s.Lookup(intent.Surface)
	if !ok {
		return "", validationError(ctx, ReasonSurfaceUnknown, "unknown upload surface", "5f0d8c51-0f5a-4b55-8e2f-3c61a9e0b7a1")
	}

	name := strings.TrimSpace(intent.FileName)
	if name == "" {
		return "", validationError(ctx, ReasonFileNameEmpty, "file name is required", "9b2f5e0c-7c1d-4a4e-bf8a-2d7e6a1c3f90")
	}
	if len(intent.FileName) > MaxFileNameBytes {
		return "", validationError(ctx, ReasonFileNameTooLong, "file name is too long", "c4a1e7d2-5b3f-4e8a-9d6c-0f1b2a3c4d5e")
	}

	contentType, ok := normalizeContentType(intent.ContentType)
	if !ok {
		return "", validationError(ctx, ReasonContentTypeInvalid, "content type is not a valid media type", "1e7b3d9a-2c4f-4a6b-8e0d-5f7a9c1b3d2e")
	}
	contentType, ok = policy.Allows(contentType)
	if !ok {
		return "", validationError(ctx, ReasonContentTypeNotAllowed, "content type is not allowed for this surface", "7d3c9e1f-4a2b-4c5d-8e6f-9a0b1c2d3e4f")
	}

	if intent.Size <= 0 {
		return "", validationError(ctx, ReasonSizeInvalid, "file size must be positive", "2a4c6e8f-1b3d-4f5a-9c7e-0d2f4a6c8e1b")
	}
	if intent.Size > policy.MaxBytes {
		return "", validationError(ctx, ReasonSizeExceeded, "file exceeds the size limit for this surface", "8f6e4d2c-0b9a-4e7d-a5c3-1b2d3e4f5a6b")
	}

	switch protocol {
	case ProtocolMultipart:
		if !policy.Multipart {
			return "", validationError(ctx, ReasonMultipartNotAllowed, "surface does not accept multipart uploads", "3b5d7f9a-2c4e-4a6c-8e0a-4c6e8a0c2e4a")
		}
	case ProtocolSimple:
		if intent.Size > MaxSinglePutBytes {
			return "", validationError(ctx, ReasonSinglePutTooLarge, "file is too large for a single upload, use multipart", "6c8e0a2c-4e6a-4c8e-a0c2-6e8a0c2e4a6c")
		}
	}

	return contentType, nil
}

func normalizeContentType(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", false
	}
	if !strings.Contains(mediaType, "/") {
		return "", false
	}
	return mediaType, true
}

func validationError(ctx context.Context, reason, message, uuid string) error {
	return platformerrors.NewValidationError(ctx, platformerrors.LayerDomain, reason, message, uuid)
}
