// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/services"
	"github.com/farmlink/discovery/internal/utils"
)

// retryAfterSeconds is how long clients should back off after a store
// failure: one breaker open period.
func retryAfterSeconds(cfg config.DiscoveryConfig) int {
	seconds := int(cfg.BreakerOpenFor.Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

// respondError maps service errors onto the response envelope.
func respondError(c *gin.Context, err error, retryAfter int) {
	lang := utils.GetLangFromContext(c)
	_ = c.Error(err)

	var storeErr *services.StoreError
	switch {
	case errors.Is(err, services.ErrInvalidCoordinates):
		utils.InvalidCoordinatesResponse(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyProductForbidden))
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrInvalidInput):
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
	case errors.As(err, &storeErr):
		utils.ServiceUnavailableResponse(c, retryAfter, gin.H{"stage": storeErr.Stage})
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, http.StatusText(http.StatusInternalServerError))
	}
}

func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "product id"), nil)
		return uuid.Nil, false
	}
	return id, true
}

// requireUser returns the authenticated caller, or writes a 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil || userID == uuid.Nil {
		lang := utils.GetLangFromContext(c)
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return uuid.Nil, false
	}
	return userID, true
}

// optionalUser returns the caller when the request carried a usable identity.
func optionalUser(c *gin.Context) *uuid.UUID {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil || userID == uuid.Nil {
		return nil
	}
	return &userID
}
