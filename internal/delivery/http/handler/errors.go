package handler

import (
	"net/http"

	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/middleware"
	appErrors "robot-dispatch/pkg/errors"
	"robot-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondWithError maps an AppError code to its HTTP status. Anything else
// is logged and reported as an internal error.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	appErr, ok := appErrors.As(err)
	if !ok || appErr.Code == appErrors.CodeInternal {
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		_ = c.Error(err)
		meta := appErrors.MetadataFor(appErrors.CodeInternal)
		utils.CodedErrorResponse(c, meta.HTTPStatus, string(appErrors.CodeInternal), "Internal server error")
		return
	}

	meta := appErrors.MetadataFor(appErr.Code)
	message := appErr.Message
	if appErr.Code == appErrors.CodeValidation && appErr.Err != nil {
		message = appErr.Error()
	}
	utils.CodedErrorResponse(c, meta.HTTPStatus, string(appErr.Code), message)
}

func badRequest(c *gin.Context, message string) {
	utils.CodedErrorResponse(c, http.StatusBadRequest, string(appErrors.CodeValidation), message)
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func callerUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.CodedErrorResponse(c, http.StatusUnauthorized, string(appErrors.CodeUnauthorized), "User not authenticated")
	}
	return id, ok
}

func callerRobotID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentRobotID(c)
	if !ok {
		utils.CodedErrorResponse(c, http.StatusUnauthorized, string(appErrors.CodeUnauthorized), "Robot not authenticated")
	}
	return id, ok
}
