package handler

import (
	"errors"
	"net/http"

	"training-erp/internal/costing"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

// actorFromContext builds the service-layer actor from the values the auth
// middleware stored on the request.
func actorFromContext(c *gin.Context) service.Actor {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)
	return service.Actor{UserID: userIDStr, Role: roleStr}
}

// respondServiceError maps service errors onto the response envelope.
// Sentinels win over the fallback status; calculation errors are client
// errors regardless of where they surfaced.
func respondServiceError(c *gin.Context, err error, fallback int) {
	status := fallback

	var missingRate *costing.MissingRateError
	var invalidCost *costing.InvalidCostError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.As(err, &missingRate), errors.As(err, &invalidCost):
		status = http.StatusBadRequest
	}

	c.JSON(status, response.Error(status, err.Error()))
}
