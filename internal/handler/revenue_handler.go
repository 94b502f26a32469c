package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type RevenueHandler struct {
	revenueService service.RevenueService
}

func NewRevenueHandler(revenueService service.RevenueService) *RevenueHandler {
	return &RevenueHandler{revenueService: revenueService}
}

func (h *RevenueHandler) RegisterRoutes(router *gin.RouterGroup) {
	revenue := router.Group("/api/revenue-summaries")
	{
		revenue.GET("/by-payment/:id", middleware.RequirePermission("cost_summaries.read"), h.GetByPayment)
	}
}

// GetByPayment returns the revenue summary of a payment record
// @Summary      Get revenue summary
// @Description  Returns the projected revenue row derived from the payment record's cost summary
// @Tags         revenue
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Record ID"
// @Success      200  {object}  response.Response{data=service.RevenueSummaryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/revenue-summaries/by-payment/{id} [get]
func (h *RevenueHandler) GetByPayment(c *gin.Context) {
	summary, err := h.revenueService.GetByPayment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
