package handlers

import (
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/domain/upload"
)

// Provider wires HTTP handlers.
type Provider struct {
	Upload *UploadHandler
}

func NewProvider(service *upload.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Upload: NewUploadHandler(service, log),
	}
}
