package upload

import (
	"slices"
	"time"
)

// Surface identifies which part of the product an upload belongs to.
type Surface string

const (
	SurfaceAvatar         Surface = "avatar"
	SurfaceCourseAsset    Surface = "course_asset"
	SurfaceChatAttachment Surface = "chat_attachment"
)

// Namespace returns the key prefix objects of this surface are stored under.
func (s Surface) Namespace() string {
	switch s {
	case SurfaceAvatar:
		return "avatars"
	case SurfaceCourseAsset:
		return "courses"
	case SurfaceChatAttachment:
		return "chat"
	default:
		return ""
	}
}

// Protocol is the transfer protocol an intent will be used with.
type Protocol string

const (
	ProtocolSimple    Protocol = "simple"
	ProtocolMultipart Protocol = "multipart"
)

// Rule names an admission-control rule set.
type Rule string

const (
	RuleSimpleUpload      Rule = "upload_simple"
	RuleMultipartInitiate Rule = "multipart_initiate"
	RuleMultipartSignPart Rule = "multipart_sign_part"
	RuleMultipartComplete Rule = "multipart_complete"
	RuleMultipartAbort    Rule = "multipart_abort"
	RuleDelete            Rule = "delete"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID    string
	Email string
	Roles []string
}

// Fingerprint is the admission-control identity of the caller.
func (c *Caller) Fingerprint() string {
	return "pid:" + c.ID
}

// HasAnyRole reports whether the caller holds at least one of roles.
func (c *Caller) HasAnyRole(roles []string) bool {
	for _, role := range roles {
		if slices.Contains(c.Roles, role) {
			return true
		}
	}
	return false
}

// UploadIntent is the client-declared description of a file about to be uploaded.
type UploadIntent struct {
	Surface     Surface
	FileName    string
	ContentType string
	Size        int64
	Folder      string
}

// SignedURL grants one PUT on one key until ExpiresAt.
type SignedURL struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Key        string            `json:"key"`
	PartNumber int32             `json:"part_number,omitempty"`
	ExpiresAt  time.Time         `json:"expires_at"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// SimpleUpload is the result of a single-shot upload request.
type SimpleUpload struct {
	Key string
	URL *SignedURL
}

// MultipartSession identifies an in-progress multipart upload held by the backend.
type MultipartSession struct {
	UploadID    string
	Key         string
	ContentType string
}

// Part is one uploaded chunk of a multipart session.
type Part struct {
	PartNumber int32
	ETag       string
}

// SignPartRequest asks for a signed URL for one part.
type SignPartRequest struct {
	UploadID   string
	Key        string
	PartNumber int32
}

// CompleteRequest asks the backend to assemble the listed parts.
type CompleteRequest struct {
	UploadID string
	Key      string
	Parts    []Part
}

// CompletedUpload describes an assembled object.
type CompletedUpload struct {
	Key      string
	Location string
}

// AbortRequest asks the backend to discard a multipart session.
type AbortRequest struct {
	UploadID string
	Key      string
}

// AbortOutcome is what the backend actually did with an abort request.
type AbortOutcome string

const (
	AbortDiscarded AbortOutcome = "discarded"
	AbortNotFound  AbortOutcome = "not_found"
	AbortFailed    AbortOutcome = "failed"
)

// AbortResult always acknowledges the caller; Outcome records the backend result.
type AbortResult struct {
	Ack     bool
	Outcome AbortOutcome
}

// SessionRecord is the only information kept locally about a multipart session.
type SessionRecord struct {
	UploadID  string
	Key       string
	CreatedAt time.Time
}

// StaleQuery selects one page of ledger entries created before OlderThan,
// ordered by (CreatedAt, UploadID) and starting strictly after After.
type StaleQuery struct {
	OlderThan time.Time
	After     *SessionRecord
	Limit     int
}
