package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/pagination"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService service.CourseService
}

func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) RegisterRoutes(router *gin.RouterGroup) {
	courses := router.Group("/api/courses")
	{
		courses.POST("", middleware.RequirePermission("students.write"), h.CreateCourse)
		courses.GET("", middleware.RequirePermission("students.read"), h.ListCourses)
		courses.GET("/:id", middleware.RequirePermission("students.read"), h.GetCourse)
		courses.POST("/batches", middleware.RequirePermission("students.write"), h.CreateBatch)
		courses.GET("/:id/batches", middleware.RequirePermission("students.read"), h.ListBatches)
	}
}

// CreateCourse registers a new training programme
// @Summary      Create course
// @Tags         courses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCourseRequest  true  "Create Course Payload"
// @Success      201      {object}  response.Response{data=service.CourseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, course))
}

// ListCourses returns a paginated list of courses
// @Summary      List courses
// @Tags         courses
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	params := pagination.Parse(c)

	courses, total, err := h.courseService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"courses": courses,
		"meta":    params.Meta(total),
	}))
}

// GetCourse returns a course by id
// @Summary      Get course
// @Tags         courses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  response.Response{data=service.CourseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, course))
}

// CreateBatch schedules a new intake of a course
// @Summary      Create batch
// @Tags         courses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBatchRequest  true  "Create Batch Payload"
// @Success      201      {object}  response.Response{data=service.BatchResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/courses/batches [post]
func (h *CourseHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	batch, err := h.courseService.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// ListBatches returns the batches of a course
// @Summary      List batches
// @Tags         courses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  response.Response{data=[]service.BatchResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/courses/{id}/batches [get]
func (h *CourseHandler) ListBatches(c *gin.Context) {
	batches, err := h.courseService.ListBatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batches))
}
