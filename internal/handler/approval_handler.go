package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/payments/:id/approvals")
	{
		approvals.GET("", middleware.RequirePermission("payments.read"), h.GetApprovalStatus)
		approvals.PUT("", middleware.RequirePermission("approvals.write"), h.RecordDecision)
	}
}

// GetApprovalStatus returns the approval workflow state of a payment record
// @Summary      Get approval status
// @Description  Returns the five approval stage statuses and reviewer details for a payment record
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Record ID"
// @Success      200  {object}  response.Response{data=service.ApprovalStatusResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id}/approvals [get]
func (h *ApprovalHandler) GetApprovalStatus(c *gin.Context) {
	status, err := h.approvalService.GetStatus(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// RecordDecision records a reviewer's approval or rejection
// @Summary      Record approval decision
// @Description  Records an Approved/Rejected decision on one approval stage; the caller's role must match the stage
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Payment Record ID"
// @Param        payload  body      service.ApprovalDecisionRequest  true  "Approval Decision"
// @Success      200      {object}  response.Response{data=service.ApprovalStatusResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/payments/{id}/approvals [put]
func (h *ApprovalHandler) RecordDecision(c *gin.Context) {
	var req service.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	status, err := h.approvalService.Decide(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}
