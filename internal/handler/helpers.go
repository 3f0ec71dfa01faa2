package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/documind/documind/internal/ai"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/middleware"
	"github.com/documind/documind/internal/pkg/errcode"
	"github.com/documind/documind/internal/pkg/errs"
	"github.com/documind/documind/internal/pkg/response"
	"github.com/documind/documind/internal/service"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, errs.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, errs.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrNotConfigured, "ai provider not configured")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrInvalidFile, "unsupported document format")
	case errors.Is(err, extract.ErrCorruptDocument):
		response.Error(c, errcode.ErrInvalidFile, "document could not be parsed")
	case errors.Is(err, service.ErrRetrievalFailed):
		response.Error(c, errcode.ErrRetrievalFailed, "context retrieval failed")
	case errors.Is(err, service.ErrGenerationFailed):
		response.Error(c, errcode.ErrGenerationFailed, "generation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
