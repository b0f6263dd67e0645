package requests

import (
	"learnhub/upload-broker/internal/domain/upload"
)

// UploadIntentRequest describes a file the client is about to upload.
type UploadIntentRequest struct {
	Surface     string `json:"surface" example:"avatar"`
	FileName    string `json:"file_name" example:"profile.png"`
	ContentType string `json:"content_type" example:"image/png"`
	Size        int64  `json:"size" example:"524288"`
	Folder      string `json:"folder,omitempty" example:"course-42/lesson-1"`
}

// ToDomain converts request to domain model
func (r *UploadIntentRequest) ToDomain() upload.UploadIntent {
	return upload.UploadIntent{
		Surface:     upload.Surface(r.Surface),
		FileName:    r.FileName,
		ContentType: r.ContentType,
		Size:        r.Size,
		Folder:      r.Folder,
	}
}

// SignPartRequest asks for a signed URL for one part of an open session.
type SignPartRequest struct {
	UploadID   string `json:"upload_id"`
	Key        string `json:"key"`
	PartNumber int32  `json:"part_number" example:"1"`
}

func (r *SignPartRequest) ToDomain() upload.SignPartRequest {
	return upload.SignPartRequest{UploadID: r.UploadID, Key: r.Key, PartNumber: r.PartNumber}
}

// CompletedPart is one part as reported by the client after uploading it.
type CompletedPart struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

// CompleteMultipartRequest lists the uploaded parts of a session.
type CompleteMultipartRequest struct {
	UploadID string          `json:"upload_id"`
	Key      string          `json:"key"`
	Parts    []CompletedPart `json:"parts"`
}

func (r *CompleteMultipartRequest) ToDomain() upload.CompleteRequest {
	parts := make([]upload.Part, 0, len(r.Parts))
	for _, p := range r.Parts {
		parts = append(parts, upload.Part{PartNumber: p.PartNumber, ETag: p.ETag})
	}
	return upload.CompleteRequest{UploadID: r.UploadID, Key: r.Key, Parts: parts}
}

// AbortMultipartRequest identifies the session to discard.
type AbortMultipartRequest struct {
	UploadID string `json:"upload_id"`
	Key      string `json:"key"`
}

func (r *AbortMultipartRequest) ToDomain() upload.AbortRequest {
	return upload.AbortRequest{UploadID: r.UploadID, Key: r.Key}
}
