package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/clients/perks"
	"github.com/bastionmc/kitsync/internal/platform/apierr"
	"github.com/bastionmc/kitsync/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError translates the service error taxonomy to HTTP. Anything
// unmapped is a store/transport fault and comes back as a 500.
func respondServiceError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	switch {
	case errors.As(err, &apiErr):
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
	case errors.Is(err, services.ErrKitNotFound):
		RespondError(c, http.StatusNotFound, "kit_not_found", err)
	case errors.Is(err, services.ErrNotConnected):
		RespondError(c, http.StatusConflict, "player_not_connected", err)
	case errors.Is(err, services.ErrKitNotAllowed):
		RespondError(c, http.StatusForbidden, "kit_not_allowed", err)
	case errors.Is(err, perks.ErrRequestTimeout):
		RespondError(c, http.StatusGatewayTimeout, "perk_service_timeout", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
