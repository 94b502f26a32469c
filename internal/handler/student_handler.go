package handler

import (
	"net/http"

	"training-erp/internal/middleware"
	"training-erp/internal/service"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	studentService service.StudentService
}

func NewStudentHandler(studentService service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

func (h *StudentHandler) RegisterRoutes(router *gin.RouterGroup) {
	students := router.Group("/api/students")
	{
		students.POST("", middleware.RequirePermission("students.write"), h.CreateStudent)
		students.POST("/enroll", middleware.RequirePermission("students.write"), h.Enroll)
	}

	codes := router.Group("/api/student-ids")
	{
		codes.POST("/generate", middleware.RequirePermission("students.write"), h.GenerateCode)
		codes.POST("/assign", middleware.RequirePermission("students.write"), h.AssignCode)
		codes.GET("/validate", middleware.RequirePermission("students.read"), h.ValidateCode)
		codes.GET("/parse", middleware.RequirePermission("students.read"), h.ParseCode)
	}
}

// CreateStudent registers a new student
// @Summary      Create student
// @Tags         students
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStudentRequest  true  "Create Student Payload"
// @Success      201      {object}  response.Response{data=service.StudentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.studentService.CreateStudent(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Enroll links a student to a course and optional batch
// @Summary      Enroll student
// @Tags         students
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EnrollStudentRequest  true  "Enrollment Payload"
// @Success      201      {object}  response.Response{data=service.EnrollmentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/students/enroll [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.studentService.Enroll(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// GenerateCode previews the next available student code for a course/batch
// @Summary      Generate student code
// @Description  Returns the next gap-filling code for the course/year/batch group without assigning it
// @Tags         student-ids
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateStudentCodeRequest  true  "Generation Parameters"
// @Success      200      {object}  response.Response{data=service.StudentCodeResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/student-ids/generate [post]
func (h *StudentHandler) GenerateCode(c *gin.Context) {
	var req service.GenerateStudentCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.studentService.GenerateCode(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// AssignCode allocates and stores a student code on an enrollment
// @Summary      Assign student code
// @Description  Idempotent: an enrollment that already carries a code keeps it
// @Tags         student-ids
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AssignStudentCodeRequest  true  "Assignment Payload"
// @Success      200      {object}  response.Response{data=service.AssignStudentCodeResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/student-ids/assign [post]
func (h *StudentHandler) AssignCode(c *gin.Context) {
	var req service.AssignStudentCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.studentService.AssignCode(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ValidateCode checks a code against the student code grammar
// @Summary      Validate student code
// @Tags         student-ids
// @Security     BearerAuth
// @Produce      json
// @Param        code  query     string  true  "Student Code"
// @Success      200   {object}  response.Response{data=object}
// @Router       /api/student-ids/validate [get]
func (h *StudentHandler) ValidateCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "code query parameter is required"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"code":  code,
		"valid": h.studentService.ValidateCode(code),
	}))
}

// ParseCode decomposes a student code into its parts
// @Summary      Parse student code
// @Tags         student-ids
// @Security     BearerAuth
// @Produce      json
// @Param        code  query     string  true  "Student Code"
// @Success      200   {object}  response.Response{data=service.StudentCodePartsResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/student-ids/parse [get]
func (h *StudentHandler) ParseCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "code query parameter is required"))
		return
	}

	res, err := h.studentService.ParseCode(code)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
