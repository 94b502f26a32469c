package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/pagination"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.POST("", middleware.RequirePermission("payments.write"), h.CreatePayment)
		payments.GET("", middleware.RequirePermission("payments.read"), h.ListPayments)
		payments.GET("/:id", middleware.RequirePermission("payments.read"), h.GetPayment)
		payments.POST("/:id/reset-approvals", middleware.RequirePermission("cost_summaries.write"), h.ResetApprovals)
	}
}

// CreatePayment opens a new costing request with optional cost components
// @Summary      Create payment record
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Create Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns a paginated list of payment records
// @Summary      List payment records
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	params := pagination.Parse(c)

	payments, total, err := h.paymentService.List(c.Request.Context(), actorFromContext(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"meta":     params.Meta(total),
	}))
}

// GetPayment returns a payment record by id
// @Summary      Get payment record
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// ResetApprovals flips the approval workflow of a payment back to Pending
// @Summary      Reset approval fields
// @Description  Sets the five approval fields to Pending, clears the detail fields, and stamps the acting user
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.ResetApprovalsResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id}/reset-approvals [post]
func (h *PaymentHandler) ResetApprovals(c *gin.Context) {
	res, err := h.paymentService.ResetApprovals(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
