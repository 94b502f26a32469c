package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	rateService service.RateService
}

func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/rates")
	{
		rates.GET("", middleware.RequirePermission("rates.read"), h.ListRates)
		rates.POST("", middleware.RequirePermission("rates.write"), h.CreateRate)
		rates.PUT("/:id", middleware.RequirePermission("rates.write"), h.UpdateRate)
		rates.DELETE("/:id", middleware.RequirePermission("rates.write"), h.DeleteRate)
	}
}

// ListRates returns the rates of a category, defaulting to the cost summary rates
// @Summary      List rates
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Rate category (default: Cost Summary Rates)"
// @Success      200       {object}  response.Response{data=[]service.RateResponse}
// @Failure      500       {object}  response.Response
// @Router       /api/rates [get]
func (h *RateHandler) ListRates(c *gin.Context) {
	rates, err := h.rateService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// CreateRate creates a new named percentage rate
// @Summary      Create rate
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRateRequest  true  "Create Rate Payload"
// @Success      201      {object}  response.Response{data=service.RateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/rates [post]
func (h *RateHandler) CreateRate(c *gin.Context) {
	var req service.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.rateService.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateRate changes the value of an existing rate
// @Summary      Update rate
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Rate ID"
// @Param        payload  body      service.UpdateRateRequest  true  "Update Rate Payload"
// @Success      200      {object}  response.Response{data=service.RateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/rates/{id} [put]
func (h *RateHandler) UpdateRate(c *gin.Context) {
	var req service.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.rateService.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteRate removes a rate
// @Summary      Delete rate
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Rate ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/rates/{id} [delete]
func (h *RateHandler) DeleteRate(c *gin.Context) {
	if err := h.rateService.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Rate deleted"))
}
