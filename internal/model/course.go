package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is a training programme. CourseCode carries the institute prefix
// (e.g. "MPACC"); student codes embed the code with the prefix stripped.
type Course struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CourseCode string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"course_code"`
	CourseName string    `gorm:"type:varchar(255);not null" json:"course_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Batch is a scheduled intake of a course. Year overrides the current year
// when generating student codes for back-dated batches.
type Batch struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:char(36);not null;index" json:"course_id"`
	Course      *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	BatchNumber int       `gorm:"not null;default:1" json:"batch_number"`
	Year        int       `gorm:"not null" json:"year"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Student is a person enrolled with the institute, distinct from the
// human-readable student code attached to each enrollment.
type Student struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Enrollment links a student to a course/batch and carries the immutable
// student code once one has been assigned.
type Enrollment struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	StudentID   uuid.UUID  `gorm:"type:char(36);not null;index;uniqueIndex:idx_enroll_student_course" json:"student_id"`
	Student     *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CourseID    uuid.UUID  `gorm:"type:char(36);not null;index;uniqueIndex:idx_enroll_student_course" json:"course_id"`
	Course      *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	BatchID     *uuid.UUID `gorm:"type:char(36);index" json:"batch_id"`
	Batch       *Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	StudentCode *string    `gorm:"type:varchar(30);uniqueIndex" json:"student_code"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
