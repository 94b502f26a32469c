package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/model"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type SpecialCaseHandler struct {
	scService service.SpecialCaseService
}

func NewSpecialCaseHandler(scService service.SpecialCaseService) *SpecialCaseHandler {
	return &SpecialCaseHandler{scService: scService}
}

func (h *SpecialCaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	sc := router.Group("/api/special-case-payments")
	sc.Use(middleware.RequireRole(
		model.RoleSuperAdmin, model.RoleFinanceManager, model.RoleCTM,
		model.RoleDCTM01, model.RoleDCTM02, model.RoleSectionalHead,
		model.RoleCoordinator,
	))
	sc.Use(middleware.RateLimit("60-M"))
	{
		sc.POST("/bulk", h.AllocateBulk)
		sc.GET("/by-payment/:id", h.ListByPayment)
		sc.PATCH("/:id", h.PaySpecialCase)
		sc.DELETE("/by-payment/:id", h.DeleteAllForPayment)
	}
}

// AllocateBulk upserts a batch of special-case payments for one payment record
// @Summary      Allocate special case payments
// @Description  Upserts special-case payables keyed by title, folds the batch sum into the delivery cost, and resets the approval workflow
// @Tags         special-cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AllocateSpecialCasesRequest  true  "Bulk Allocation Payload"
// @Success      201      {object}  response.Response{data=service.AllocateSpecialCasesResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/special-case-payments/bulk [post]
func (h *SpecialCaseHandler) AllocateBulk(c *gin.Context) {
	var req service.AllocateSpecialCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.scService.AllocateBulk(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListByPayment returns all special-case payments of one payment record
// @Summary      List special case payments
// @Tags         special-cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=[]service.SpecialCaseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/special-case-payments/by-payment/{id} [get]
func (h *SpecialCaseHandler) ListByPayment(c *gin.Context) {
	res, err := h.scService.ListByPayment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// PaySpecialCase records a partial payment against one special case
// @Summary      Pay special case
// @Description  Adds a positive increment to amount_paid, capped at total_payable
// @Tags         special-cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Special Case ID"
// @Param        payload  body      service.PaySpecialCaseRequest  true  "Payment Increment"
// @Success      200      {object}  response.Response{data=service.SpecialCaseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/special-case-payments/{id} [patch]
func (h *SpecialCaseHandler) PaySpecialCase(c *gin.Context) {
	var req service.PaySpecialCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.scService.Pay(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteAllForPayment removes every special case of one payment record
// @Summary      Delete special case payments
// @Description  Deletes all special cases of the payment, backs their sum out of the delivery cost (clamped at zero), and resets the approval workflow
// @Tags         special-cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.DeleteSpecialCasesResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/special-case-payments/by-payment/{id} [delete]
func (h *SpecialCaseHandler) DeleteAllForPayment(c *gin.Context) {
	res, err := h.scService.DeleteAllForPayment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
