package responses

import (
	"time"

	"learnhub/upload-broker/internal/domain/upload"
)

// SignedURLResponse is a presigned PUT the client sends bytes to.
type SignedURLResponse struct {
	URL        string            `json:"url"`
	Key        string            `json:"key"`
	PartNumber int32             `json:"part_number,omitempty"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// BuildSimpleUploadResponse creates a response for a single-shot upload.
func BuildSimpleUploadResponse(result *upload.SimpleUpload) *SignedURLResponse {
	resp := buildSignedURL(result.URL)
	resp.Key = result.Key
	return resp
}

// BuildSignPartResponse creates a response for a signed part.
func BuildSignPartResponse(url *upload.SignedURL) *SignedURLResponse {
	return buildSignedURL(url)
}

func buildSignedURL(url *upload.SignedURL) *SignedURLResponse {
	headers := url.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return &SignedURLResponse{
		URL:        url.URL,
		Key:        url.Key,
		PartNumber: url.PartNumber,
		Method:     url.Method,
		Headers:    headers,
		ExpiresAt:  url.ExpiresAt,
	}
}

// InitiateMultipartResponse identifies a new multipart session.
type InitiateMultipartResponse struct {
	UploadID string `json:"upload_id"`
	Key      string `json:"key"`
}

func BuildInitiateMultipartResponse(session *upload.MultipartSession) *InitiateMultipartResponse {
	return &InitiateMultipartResponse{UploadID: session.UploadID, Key: session.Key}
}

// CompleteMultipartResponse describes the assembled object.
type CompleteMultipartResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}

func BuildCompleteMultipartResponse(result *upload.CompletedUpload) *CompleteMultipartResponse {
	return &CompleteMultipartResponse{Key: result.Key, Location: result.Location}
}

// AckResponse acknowledges a request whose result carries no payload.
type AckResponse struct {
	Ack bool `json:"ack"`
}

// PolicyResponse describes the constraints of one surface.
type PolicyResponse struct {
	Surface      string   `json:"surface"`
	MaxBytes     int64    `json:"max_bytes"`
	ContentTypes []string `json:"content_types"`
	Multipart    bool     `json:"multipart"`
}

// PoliciesResponse lists every surface policy.
type PoliciesResponse struct {
	Policies []PolicyResponse `json:"policies"`
}

func BuildPoliciesResponse(policies []upload.Policy) *PoliciesResponse {
	out := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, PolicyResponse{
			Surface:      string(p.Surface),
			MaxBytes:     p.MaxBytes,
			ContentTypes: p.ContentTypes,
			Multipart:    p.Multipart,
		})
	}
	return &PoliciesResponse{Policies: out}
}
