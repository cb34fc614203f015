package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/aegisrules/aegis/internal/api/middleware"
	"github.com/aegisrules/aegis/internal/paging"
	"github.com/aegisrules/aegis/internal/services"
)

// Canonical status strings carried in the error envelope. Clients switch on
// these rather than on HTTP codes.
const (
	StatusInvalidArgument    = "INVALID_ARGUMENT"
	StatusNotFound           = "NOT_FOUND"
	StatusFailedPrecondition = "FAILED_PRECONDITION"
	StatusResourceExhausted  = "RESOURCE_EXHAUSTED"
	StatusInternal           = "INTERNAL"
)

// resourceNameRE constrains ruleset name segments; project ids share it.
var resourceNameRE = regexp.MustCompile(`^[0-9a-zA-Z-]+$`)

// releaseNameRE additionally allows dots for engine slots like aegis.docstore.
var releaseNameRE = regexp.MustCompile(`^[0-9a-zA-Z._-]+$`)

type apiError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type apiErrorBody struct {
	Error apiError `json:"error"`
}

func writeAPIError(c *gin.Context, httpCode int, status, message string) {
	c.AbortWithStatusJSON(httpCode, apiErrorBody{Error: apiError{
		Code:    httpCode,
		Status:  status,
		Message: message,
	}})
}

// writeServiceError maps service sentinels onto the wire envelope. Anything
// unmapped is a 500 with the detail kept out of the response.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRuleset),
		errors.Is(err, services.ErrInvalidRelease),
		errors.Is(err, paging.ErrInvalidToken):
		writeAPIError(c, http.StatusBadRequest, StatusInvalidArgument, err.Error())
	case errors.Is(err, services.ErrRulesetNotFound),
		errors.Is(err, services.ErrReleaseNotFound):
		writeAPIError(c, http.StatusNotFound, StatusNotFound, err.Error())
	case errors.Is(err, services.ErrRulesetInUse),
		errors.Is(err, services.ErrUnknownRuleset):
		writeAPIError(c, http.StatusBadRequest, StatusFailedPrecondition, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		writeAPIError(c, http.StatusTooManyRequests, StatusResourceExhausted, err.Error())
	default:
		middleware.GetRequestLogger(c).WithError(err).Error("request failed")
		writeAPIError(c, http.StatusInternalServerError, StatusInternal, "internal server error")
	}
}
