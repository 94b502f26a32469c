package repository

import (
	"context"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	FindStudentByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	Create(ctx context.Context, enrollment *model.Enrollment) error
	Update(ctx context.Context, enrollment *model.Enrollment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Enrollment, error)
	// CodesByPrefixForUpdate returns all assigned student codes with the
	// given prefix, locking the matching rows so gap-filling allocation
	// serializes under concurrent enrollment.
	CodesByPrefixForUpdate(ctx context.Context, prefix string) ([]string, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) CreateStudent(ctx context.Context, student *model.Student) error {
	return GetDB(ctx, r.db).Create(student).Error
}

func (r *enrollmentRepository) FindStudentByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var student model.Student
	if err := GetDB(ctx, r.db).First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return GetDB(ctx, r.db).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *model.Enrollment) error {
	return GetDB(ctx, r.db).Save(enrollment).Error
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := GetDB(ctx, r.db).First(&enrollment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := GetDB(ctx, r.db).
		Preload("Student").Preload("Course").Preload("Batch").
		First(&enrollment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) CodesByPrefixForUpdate(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	if err := GetDB(ctx, r.db).
		Model(&model.Enrollment{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_code LIKE ?", prefix+"%").
		Pluck("student_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
