package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/model"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type CostSummaryHandler struct {
	summaryService service.CostSummaryService
}

func NewCostSummaryHandler(summaryService service.CostSummaryService) *CostSummaryHandler {
	return &CostSummaryHandler{summaryService: summaryService}
}

func (h *CostSummaryHandler) RegisterRoutes(router *gin.RouterGroup) {
	summaries := router.Group("/api/course-cost-summary")
	summaries.Use(middleware.RequireRole(
		model.RoleSuperAdmin, model.RoleFinanceManager, model.RoleCTM,
		model.RoleDCTM01, model.RoleDCTM02, model.RoleSectionalHead,
		model.RoleCoordinator,
	))
	summaries.Use(middleware.RateLimit("60-M"))
	{
		summaries.POST("", h.CreateCostSummary)
		summaries.GET("/:id", h.GetCostSummary)
		summaries.PATCH("/:id/refresh", h.RefreshCostSummary)
		summaries.DELETE("/:id", h.DeleteCostSummary)
	}
}

// CreateCostSummary derives and stores the full cost chain for a payment record
// @Summary      Create cost summary
// @Description  Computes the staged cost chain for a payment record, replaces any previous summary, and resets the approval workflow
// @Tags         cost-summaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCostSummaryRequest  true  "Create Cost Summary Payload"
// @Success      201      {object}  response.Response{data=service.CostSummaryResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/course-cost-summary [post]
func (h *CostSummaryHandler) CreateCostSummary(c *gin.Context) {
	var req service.CreateCostSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	summary, err := h.summaryService.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, summary))
}

// GetCostSummary returns a cost summary by id
// @Summary      Get cost summary
// @Description  Returns the stored cost summary row
// @Tags         cost-summaries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Cost Summary ID"
// @Success      200  {object}  response.Response{data=service.CostSummaryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/course-cost-summary/{id} [get]
func (h *CostSummaryHandler) GetCostSummary(c *gin.Context) {
	summary, err := h.summaryService.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// RefreshCostSummary recomputes an existing summary in place
// @Summary      Refresh cost summary
// @Description  Recomputes the summary from current cost components and rates without touching approvals
// @Tags         cost-summaries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Cost Summary ID"
// @Param        payload  body      service.CreateCostSummaryRequest  true  "Refresh Payload"
// @Success      200      {object}  response.Response{data=service.CostSummaryResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/course-cost-summary/{id}/refresh [patch]
func (h *CostSummaryHandler) RefreshCostSummary(c *gin.Context) {
	var req service.CreateCostSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	summary, err := h.summaryService.Refresh(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// DeleteCostSummary removes a summary and its revenue row
// @Summary      Delete cost summary
// @Description  Deletes the summary and revenue rows, then resets the approval workflow; a failed reset is reported as a warning
// @Tags         cost-summaries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Cost Summary ID"
// @Success      200  {object}  response.Response{data=service.DeleteCostSummaryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/course-cost-summary/{id} [delete]
func (h *CostSummaryHandler) DeleteCostSummary(c *gin.Context) {
	res, err := h.summaryService.Delete(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
