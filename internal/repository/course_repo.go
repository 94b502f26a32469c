package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, page, limit int) ([]model.Course, int64, error)
	CreateBatch(ctx context.Context, batch *model.Batch) error
	FindBatchByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	ListBatches(ctx context.Context, courseID uuid.UUID) ([]model.Batch, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return GetDB(ctx, r.db).Create(course).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := GetDB(ctx, r.db).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	if err := GetDB(ctx, r.db).Where("course_code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) List(ctx context.Context, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Course{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("course_code asc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) CreateBatch(ctx context.Context, batch *model.Batch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *courseRepository) FindBatchByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	if err := GetDB(ctx, r.db).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *courseRepository) ListBatches(ctx context.Context, courseID uuid.UUID) ([]model.Batch, error) {
	var batches []model.Batch
	if err := GetDB(ctx, r.db).
		Where("course_id = ?", courseID).
		Order("year desc, batch_number asc").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}
