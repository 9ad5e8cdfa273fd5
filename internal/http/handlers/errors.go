// Package handlers defines HTTP-layer error codes used by the web endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on the human-readable text. The WhatsApp webhook does not use codes:
// its callers only understand a {text} body.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_session",
//	  "error": "Invalid session"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidSession = "invalid_session"
	ErrCodeLLMUnavailable = "llm_unavailable"
	ErrCodeGateway        = "gateway_error"
	ErrCodeGatewayTimeout = "gateway_timeout"
	ErrCodeStorage        = "storage_error"
)

// Messages shown for errors whose wording clients already rely on.
const (
	msgInvalidSession = "Invalid session"
	msgLLMUnavailable = "LLM not initialized properly"
	msgGatewayFailed  = "completion service failed"
	msgGatewayTimeout = "completion service timed out"
	msgStorage        = "storage failure"
	msgInternal       = "internal error"
)

// failErr maps a service error to its status, code and message.
//
//	validation          → 400
//	gateway unavailable → 500
//	gateway timeout     → 504
//	gateway failure     → 502
//	storage / other     → 500
//
// Upstream and storage details only reach the log, never the client.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSession):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSession, msgInvalidSession)
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrGatewayUnavailable):
		fail(c, http.StatusInternalServerError, ErrCodeLLMUnavailable, msgLLMUnavailable)
	case errors.Is(err, services.ErrGatewayTimeout):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("completion timed out")
		fail(c, http.StatusGatewayTimeout, ErrCodeGatewayTimeout, msgGatewayTimeout)
	case errors.Is(err, services.ErrGateway):
		middleware.LoggerFrom(c).Error().Err(err).Msg("completion failed")
		fail(c, http.StatusBadGateway, ErrCodeGateway, msgGatewayFailed)
	case errors.Is(err, services.ErrStorage):
		middleware.LoggerFrom(c).Error().Err(err).Msg("storage failure")
		fail(c, http.StatusInternalServerError, ErrCodeStorage, msgStorage)
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}
