package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/interfaces/httpserver/middlewares"
	"learnhub/upload-broker/internal/interfaces/httpserver/requests"
	"learnhub/upload-broker/internal/interfaces/httpserver/responses"
)

// UploadService is the broker behaviour the handler exposes.
type UploadService interface {
	Policies() []upload.Policy
	CreateSimpleUpload(ctx context.Context, caller *upload.Caller, intent upload.UploadIntent) (*upload.SimpleUpload, error)
	InitiateMultipart(ctx context.Context, caller *upload.Caller, intent upload.UploadIntent) (*upload.MultipartSession, error)
	SignPart(ctx context.Context, caller *upload.Caller, req upload.SignPartRequest) (*upload.SignedURL, error)
	CompleteMultipart(ctx context.Context, caller *upload.Caller, req upload.CompleteRequest) (*upload.CompletedUpload, error)
	AbortMultipart(ctx context.Context, caller *upload.Caller, req upload.AbortRequest) (*upload.AbortResult, error)
	DeleteObject(ctx context.Context, caller *upload.Caller, key string) error
}

// UploadHandler exposes upload broker endpoints.
type UploadHandler struct {
	service UploadService
	log     zerolog.Logger
}

func NewUploadHandler(service UploadService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

// CreateSimpleUpload godoc
// @Summary      Sign a single-shot upload
// @Description  Validates the upload intent against the surface policy and returns a presigned PUT for a fresh key.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.UploadIntentRequest  true  "Upload intent"
// @Success      200      {object}  responses.SignedURLResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Failure      429      {object}  responses.ErrorResponse
// @Failure      503      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/simple [post]
func (h *UploadHandler) CreateSimpleUpload(c *gin.Context) {
	var req requests.UploadIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBindError(c)
		return
	}

	caller, _ := middlewares.CallerFromContext(c)
	result, err := h.service.CreateSimpleUpload(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.BuildSimpleUploadResponse(result))
}

// InitiateMultipart godoc
// @Summary      Start a multipart upload
// @Description  Validates the upload intent and opens a multipart session at the storage backend. Surface defaults to course_asset.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.UploadIntentRequest  true  "Upload intent"
// @Success      200      {object}  responses.InitiateMultipartResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Failure      429      {object}  responses.ErrorResponse
// @Failure      503      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/multipart/initiate [post]
func (h *UploadHandler) InitiateMultipart(c *gin.Context) {
	var req requests.UploadIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBindError(c)
		return
	}

	caller, _ := middlewares.CallerFromContext(c)
	session, err := h.service.InitiateMultipart(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.BuildInitiateMultipartResponse(session))
}

// SignPart godoc
// @Summary      Sign one part of a multipart upload
// @Description  Returns a presigned PUT for a part. Parts may be signed again and in any order.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.SignPartRequest  true  "Part to sign"
// @Success      200      {object}  responses.SignedURLResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Failure      429      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/multipart/sign-part [post]
func (h *UploadHandler) SignPart(c *gin.Context) {
	var req requests.SignPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBindError(c)
		return
	}

	caller, _ := middlewares.CallerFromContext(c)
	url, err := h.service.SignPart(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.BuildSignPartResponse(url))
}

// CompleteMultipart godoc
// @Summary      Complete a multipart upload
// @Description  Assembles the listed parts into the final object. Parts may be listed in any order.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CompleteMultipartRequest  true  "Uploaded parts"
// @Success      200      {object}  responses.CompleteMultipartResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Failure      409      {object}  responses.ErrorResponse
// @Failure      503      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/multipart/complete [post]
func (h *UploadHandler) CompleteMultipart(c *gin.Context) {
	var req requests.CompleteMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBindError(c)
		return
	}

	caller, _ := middlewares.CallerFromContext(c)
	result, err := h.service.CompleteMultipart(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.BuildCompleteMultipartResponse(result))
}

// AbortMultipart godoc
// @Summary      Abort a multipart upload
// @Description  Discards a multipart session. Always acknowledged once the request is valid.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request  body      requests.AbortMultipartRequest  true  "Session to abort"
// @Success      200      {object}  responses.AckResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/multipart/abort [post]
func (h *UploadHandler) AbortMultipart(c *gin.Context) {
	var req requests.AbortMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBindError(c)
		return
	}

	caller, _ := middlewares.CallerFromContext(c)
	result, err := h.service.AbortMultipart(c.Request.Context(), caller, req.ToDomain())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.AckResponse{Ack: result.Ack})
}

// DeleteObject godoc
// @Summary      Delete an uploaded object
// @Description  Removes a broker-issued object. Requires a delete role.
// @Tags         uploads
// @Produce      json
// @Param        key  path      string  true  "Object key"
// @Success      200  {object}  responses.AckResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      503  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/uploads/objects/{key} [delete]
func (h *UploadHandler) DeleteObject(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	caller, _ := middlewares.CallerFromContext(c)
	if err := h.service.DeleteObject(c.Request.Context(), caller, key); err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.AckResponse{Ack: true})
}

// ListPolicies godoc
// @Summary      List upload policies
// @Description  Returns the size ceiling and allowed content types of every surface.
// @Tags         uploads
// @Produce      json
// @Success      200  {object}  responses.PoliciesResponse
// @Security     BearerAuth
// @Router       /v1/uploads/policies [get]
func (h *UploadHandler) ListPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, responses.BuildPoliciesResponse(h.service.Policies()))
}
