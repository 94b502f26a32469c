package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"
	"training-erp/pkg/studentcode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCourseRequest struct {
	CourseCode string `json:"course_code" binding:"required"`
	CourseName string `json:"course_name" binding:"required"`
}

type CreateBatchRequest struct {
	CourseID    string `json:"course_id" binding:"required"`
	BatchNumber int    `json:"batch_number" binding:"required,gt=0"`
	Year        int    `json:"year" binding:"required,gte=2000,lte=2099"`
}

type CourseResponse struct {
	ID         string `json:"id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	CreatedAt  string `json:"created_at"`
}

type BatchResponse struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	BatchNumber int    `json:"batch_number"`
	Year        int    `json:"year"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type CourseService interface {
	Create(ctx context.Context, req CreateCourseRequest) (CourseResponse, error)
	Get(ctx context.Context, id string) (CourseResponse, error)
	List(ctx context.Context, page, limit int) ([]CourseResponse, int64, error)
	CreateBatch(ctx context.Context, req CreateBatchRequest) (BatchResponse, error)
	ListBatches(ctx context.Context, courseID string) ([]BatchResponse, error)
}

type courseService struct {
	courseRepo repository.CourseRepository
}

func NewCourseService(courseRepo repository.CourseRepository) CourseService {
	return &courseService{courseRepo: courseRepo}
}

// --- Implementation ---

func (s *courseService) Create(ctx context.Context, req CreateCourseRequest) (CourseResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	if !strings.HasPrefix(code, studentcode.InstitutePrefix) {
		return CourseResponse{}, fmt.Errorf("course_code must carry the %s prefix", studentcode.InstitutePrefix)
	}

	if _, err := s.courseRepo.FindByCode(ctx, code); err == nil {
		return CourseResponse{}, fmt.Errorf("course '%s' already exists", code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CourseResponse{}, fmt.Errorf("failed to check existing course: %w", err)
	}

	course := &model.Course{
		CourseCode: code,
		CourseName: req.CourseName,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return CourseResponse{}, fmt.Errorf("failed to create course: %w", err)
	}

	return toCourseResponse(*course), nil
}

func (s *courseService) Get(ctx context.Context, id string) (CourseResponse, error) {
	courseID, err := uuid.Parse(id)
	if err != nil {
		return CourseResponse{}, fmt.Errorf("invalid course id: %w", err)
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CourseResponse{}, fmt.Errorf("course not found: %w", ErrNotFound)
		}
		return CourseResponse{}, fmt.Errorf("failed to fetch course: %w", err)
	}

	return toCourseResponse(*course), nil
}

func (s *courseService) List(ctx context.Context, page, limit int) ([]CourseResponse, int64, error) {
	courses, total, err := s.courseRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	return out, total, nil
}

func (s *courseService) CreateBatch(ctx context.Context, req CreateBatchRequest) (BatchResponse, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("invalid course_id: %w", err)
	}
	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BatchResponse{}, fmt.Errorf("course not found: %w", ErrNotFound)
		}
		return BatchResponse{}, fmt.Errorf("failed to fetch course: %w", err)
	}

	batch := &model.Batch{
		CourseID:    courseID,
		BatchNumber: req.BatchNumber,
		Year:        req.Year,
	}
	if err := s.courseRepo.CreateBatch(ctx, batch); err != nil {
		return BatchResponse{}, fmt.Errorf("failed to create batch: %w", err)
	}

	return toBatchResponse(*batch), nil
}

func (s *courseService) ListBatches(ctx context.Context, courseIDStr string) ([]BatchResponse, error) {
	courseID, err := uuid.Parse(courseIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid course id: %w", err)
	}

	batches, err := s.courseRepo.ListBatches(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b))
	}
	return out, nil
}

// --- Helpers ---

func toCourseResponse(c model.Course) CourseResponse {
	return CourseResponse{
		ID:         c.ID.String(),
		CourseCode: c.CourseCode,
		CourseName: c.CourseName,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func toBatchResponse(b model.Batch) BatchResponse {
	return BatchResponse{
		ID:          b.ID.String(),
		CourseID:    b.CourseID.String(),
		BatchNumber: b.BatchNumber,
		Year:        b.Year,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
}
