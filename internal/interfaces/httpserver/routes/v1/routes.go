package v1

import (
	"github.com/gin-gonic/gin"

	"learnhub/upload-broker/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix. Every route requires auth.
func (r *Routes) Register(router gin.IRouter, auth gin.HandlerFunc) {
	group := router.Group("/v1/uploads", auth)
	group.GET("/policies", r.handlers.Upload.ListPolicies)
	group.POST("/simple", r.handlers.Upload.CreateSimpleUpload)
	group.POST("/multipart/initiate", r.handlers.Upload.InitiateMultipart)
	group.POST("/multipart/sign-part", r.handlers.Upload.SignPart)
	group.POST("/multipart/complete", r.handlers.Upload.CompleteMultipart)
	group.POST("/multipart/abort", r.handlers.Upload.AbortMultipart)
	group.DELETE("/objects/*key", r.handlers.Upload.DeleteObject)
}
