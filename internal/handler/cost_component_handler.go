package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type CostComponentHandler struct {
	componentService service.CostComponentService
}

func NewCostComponentHandler(componentService service.CostComponentService) *CostComponentHandler {
	return &CostComponentHandler{componentService: componentService}
}

func (h *CostComponentHandler) RegisterRoutes(router *gin.RouterGroup) {
	costs := router.Group("/api/payments/:id/costs")
	{
		costs.GET("", middleware.RequirePermission("payments.read"), h.GetCostComponents)
		costs.PUT("", middleware.RequirePermission("payments.write"), h.UpdateCostComponents)
	}
}

// GetCostComponents returns the latest cost component values for a payment record
// @Summary      Get cost components
// @Description  Returns the authoritative development, delivery and overhead totals of a payment record
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Record ID"
// @Success      200  {object}  response.Response{data=service.CostComponentsResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id}/costs [get]
func (h *CostComponentHandler) GetCostComponents(c *gin.Context) {
	components, err := h.componentService.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, components))
}

// UpdateCostComponents appends new cost component rows for a payment record
// @Summary      Update cost components
// @Description  Appends new component rows; the existing cost summary stays stale until refreshed or recreated
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Payment Record ID"
// @Param        payload  body      service.UpdateCostComponentsRequest  true  "Cost Component Values"
// @Success      200      {object}  response.Response{data=service.CostComponentsResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments/{id}/costs [put]
func (h *CostComponentHandler) UpdateCostComponents(c *gin.Context) {
	var req service.UpdateCostComponentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	components, err := h.componentService.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, components))
}
