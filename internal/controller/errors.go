package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/esiagate/esiagate/internal/middleware"
	"github.com/esiagate/esiagate/internal/service"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	var providerErr *service.ProviderError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)

	event := tlog.App.Warn()
	if status >= 500 {
		event = tlog.App.Error()
	}

	var providerErr *service.ProviderError
	isProviderErr := errors.As(err, &providerErr)

	if isProviderErr && providerErr.Body != "" {
		event = event.Str("provider_body", providerErr.Body)
	}

	event.Err(err).Str("request_id", middleware.GetRequestID(c)).Int("status", status).Msg("Request failed")

	body := gin.H{
		"status":  status,
		"message": http.StatusText(status),
	}

	// internal failures are not echoed back to the caller
	if status != http.StatusInternalServerError {
		body["error"] = err.Error()
	}

	if isProviderErr && (providerErr.Code != "" || providerErr.Description != "") {
		body["details"] = gin.H{
			"error":             providerErr.Code,
			"error_description": providerErr.Description,
		}
	}

	c.JSON(status, body)
}

func writeBindError(c *gin.Context, err error) {
	tlog.App.Debug().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("Failed to bind request")
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  http.StatusBadRequest,
		"message": "Bad Request",
		"error":   err.Error(),
	})
}

func unauthorized(c *gin.Context, detail string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"status":  http.StatusUnauthorized,
		"message": "Unauthorized",
		"error":   detail,
	})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		writeError(c, invalidParam(name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

func parseOID(c *gin.Context, name string) (int64, bool) {
	oid, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || oid <= 0 {
		writeError(c, invalidParam(name, c.Param(name)))
		return 0, false
	}
	return oid, true
}

func parsePage(c *gin.Context) (service.Page, bool) {
	page := service.Page{Limit: service.DefaultPageLimit}

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			writeError(c, invalidParam("skip", raw))
			return page, false
		}
		page.Skip = skip
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > service.MaxPageLimit {
			writeError(c, invalidParam("limit", raw))
			return page, false
		}
		page.Limit = limit
	}

	return page, true
}

func invalidParam(name string, value string) error {
	return &paramError{name: name, value: value}
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + ": " + strconv.Quote(e.value)
}

func (e *paramError) Unwrap() error {
	return service.ErrValidation
}
