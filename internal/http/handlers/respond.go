package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/gin-gonic/gin"
)

// ErrorResponse keeps the top-level "error" string clients already read.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middlewares.RequestIDFromContext(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal logs the cause with the request id and trace id; the client only sees message.
func RespondInternal(ctx *gin.Context, message string, err error) {
	reqCtx := ctx.Request.Context()

	slog.Default().ErrorContext(reqCtx, message,
		"err", err,
		"route", ctx.FullPath(),
		"request_id", middlewares.RequestIDFromContext(ctx),
	)

	var details any
	if traceID := observability.TraceID(reqCtx); traceID != "" {
		details = gin.H{"traceId": traceID}
	}

	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, details)
}
