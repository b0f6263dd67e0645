package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/utils/platformerrors"
)

// ErrorResponse documents the error envelope in swagger.
type ErrorResponse = platformerrors.HTTPErrorResponse

// HandleError writes err using the platform error envelope.
func HandleError(c *gin.Context, err error, log zerolog.Logger) {
	platformerrors.WriteError(c, err, log)
}

// HandleBindError rejects a request body that could not be decoded.
func HandleBindError(c *gin.Context) {
	platformerrors.WriteValidationError(c, "request body is not valid JSON")
}
