package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"
	"training-erp/pkg/studentcode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateStudentRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

type StudentResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type EnrollStudentRequest struct {
	StudentID string  `json:"student_id" binding:"required"`
	CourseID  string  `json:"course_id" binding:"required"`
	BatchID   *string `json:"batch_id"`
}

type GenerateStudentCodeRequest struct {
	CourseID string  `json:"course_id" binding:"required"`
	BatchID  *string `json:"batch_id"`
	Year     *int    `json:"year"` // overrides the current year for back-dated batches
}

type AssignStudentCodeRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"required"`
	Year         *int   `json:"year"`
}

type StudentCodeResponse struct {
	StudentCode string `json:"student_code"`
	CourseCode  string `json:"course_code"`
	Year        int    `json:"year"`
	BatchNumber int    `json:"batch_number"`
	Sequence    int    `json:"sequence"`
}

type AssignStudentCodeResponse struct {
	EnrollmentID    string `json:"enrollment_id"`
	StudentCode     string `json:"student_code"`
	AlreadyAssigned bool   `json:"already_assigned"`
}

type StudentCodePartsResponse struct {
	Institute   string `json:"institute"`
	CourseCode  string `json:"course_code"`
	Year        int    `json:"year"`
	BatchNumber int    `json:"batch_number"`
	Sequence    int    `json:"sequence"`
}

type EnrollmentResponse struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"student_id"`
	CourseID    string  `json:"course_id"`
	BatchID     *string `json:"batch_id"`
	StudentCode *string `json:"student_code"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

type StudentService interface {
	CreateStudent(ctx context.Context, actor Actor, req CreateStudentRequest) (StudentResponse, error)
	Enroll(ctx context.Context, actor Actor, req EnrollStudentRequest) (EnrollmentResponse, error)
	GenerateCode(ctx context.Context, actor Actor, req GenerateStudentCodeRequest) (StudentCodeResponse, error)
	AssignCode(ctx context.Context, actor Actor, req AssignStudentCodeRequest) (AssignStudentCodeResponse, error)
	ValidateCode(code string) bool
	ParseCode(code string) (StudentCodePartsResponse, error)
}

type studentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewStudentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) StudentService {
	return &studentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// --- Implementation ---

func (s *studentService) CreateStudent(ctx context.Context, actor Actor, req CreateStudentRequest) (StudentResponse, error) {
	student := &model.Student{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := s.enrollmentRepo.CreateStudent(ctx, student); err != nil {
		return StudentResponse{}, fmt.Errorf("failed to create student: %w", err)
	}

	return StudentResponse{
		ID:        student.ID.String(),
		FullName:  student.FullName,
		Email:     student.Email,
		Phone:     student.Phone,
		CreatedAt: student.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *studentService) Enroll(ctx context.Context, actor Actor, req EnrollStudentRequest) (EnrollmentResponse, error) {
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return EnrollmentResponse{}, fmt.Errorf("invalid student_id: %w", err)
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return EnrollmentResponse{}, fmt.Errorf("invalid course_id: %w", err)
	}

	if _, err := s.enrollmentRepo.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EnrollmentResponse{}, fmt.Errorf("student not found: %w", ErrNotFound)
		}
		return EnrollmentResponse{}, fmt.Errorf("failed to fetch student: %w", err)
	}
	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EnrollmentResponse{}, fmt.Errorf("course not found: %w", ErrNotFound)
		}
		return EnrollmentResponse{}, fmt.Errorf("failed to fetch course: %w", err)
	}

	enrollment := &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
	}
	if req.BatchID != nil {
		batchID, parseErr := uuid.Parse(*req.BatchID)
		if parseErr != nil {
			return EnrollmentResponse{}, fmt.Errorf("invalid batch_id: %w", parseErr)
		}
		batch, batchErr := s.courseRepo.FindBatchByID(ctx, batchID)
		if batchErr != nil {
			if errors.Is(batchErr, gorm.ErrRecordNotFound) {
				return EnrollmentResponse{}, fmt.Errorf("batch not found: %w", ErrNotFound)
			}
			return EnrollmentResponse{}, fmt.Errorf("failed to fetch batch: %w", batchErr)
		}
		if batch.CourseID != courseID {
			return EnrollmentResponse{}, fmt.Errorf("batch does not belong to the given course")
		}
		enrollment.BatchID = &batchID
	}

	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return EnrollmentResponse{}, fmt.Errorf("failed to enroll student: %w", err)
	}

	writeAuditLog(ctx, s.auditRepo, actor, model.ActionEnrollStudent, enrollment.ID.String(), req.StudentID, req)

	return toEnrollmentResponse(*enrollment), nil
}

// GenerateCode previews the next available code for a course/batch group
// without assigning it. The sequence reuses gaps left by removed students,
// so the preview is only a hint under concurrent assignment.
func (s *studentService) GenerateCode(ctx context.Context, actor Actor, req GenerateStudentCodeRequest) (StudentCodeResponse, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return StudentCodeResponse{}, fmt.Errorf("invalid course_id: %w", err)
	}
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StudentCodeResponse{}, fmt.Errorf("course not found: %w", ErrNotFound)
		}
		return StudentCodeResponse{}, fmt.Errorf("failed to fetch course: %w", err)
	}

	year, batchNumber, err := s.resolveYearAndBatch(ctx, courseID, req.BatchID, req.Year)
	if err != nil {
		return StudentCodeResponse{}, err
	}

	prefix := studentcode.Prefix(course.CourseCode, year, batchNumber)
	codes, err := s.enrollmentRepo.CodesByPrefixForUpdate(ctx, prefix)
	if err != nil {
		return StudentCodeResponse{}, fmt.Errorf("failed to scan existing codes: %w", err)
	}
	seq := studentcode.NextSequence(studentcode.SequencesFromCodes(codes))

	return StudentCodeResponse{
		StudentCode: studentcode.Format(course.CourseCode, year, batchNumber, seq),
		CourseCode:  course.CourseCode,
		Year:        year,
		BatchNumber: batchNumber,
		Sequence:    seq,
	}, nil
}

// AssignCode allocates and stores a code on the enrollment. Assignment is
// idempotent: an enrollment that already carries a code keeps it.
func (s *studentService) AssignCode(ctx context.Context, actor Actor, req AssignStudentCodeRequest) (AssignStudentCodeResponse, error) {
	enrollmentID, err := uuid.Parse(req.EnrollmentID)
	if err != nil {
		return AssignStudentCodeResponse{}, fmt.Errorf("invalid enrollment_id: %w", err)
	}

	var resp AssignStudentCodeResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		enrollment, findErr := s.enrollmentRepo.FindByID(txCtx, enrollmentID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("enrollment not found: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to fetch enrollment: %w", findErr)
		}

		if enrollment.StudentCode != nil {
			resp = AssignStudentCodeResponse{
				EnrollmentID:    enrollment.ID.String(),
				StudentCode:     *enrollment.StudentCode,
				AlreadyAssigned: true,
			}
			return nil
		}

		course, courseErr := s.courseRepo.FindByID(txCtx, enrollment.CourseID)
		if courseErr != nil {
			return fmt.Errorf("failed to fetch course: %w", courseErr)
		}

		var batchID *string
		if enrollment.BatchID != nil {
			v := enrollment.BatchID.String()
			batchID = &v
		}
		year, batchNumber, resolveErr := s.resolveYearAndBatch(txCtx, enrollment.CourseID, batchID, req.Year)
		if resolveErr != nil {
			return resolveErr
		}

		// The locked prefix scan serializes concurrent assignments within
		// one course/year/batch group; the unique index on student_code
		// backstops anything the lock misses.
		prefix := studentcode.Prefix(course.CourseCode, year, batchNumber)
		codes, scanErr := s.enrollmentRepo.CodesByPrefixForUpdate(txCtx, prefix)
		if scanErr != nil {
			return fmt.Errorf("failed to scan existing codes: %w", scanErr)
		}
		seq := studentcode.NextSequence(studentcode.SequencesFromCodes(codes))
		code := studentcode.Format(course.CourseCode, year, batchNumber, seq)

		enrollment.StudentCode = &code
		if upErr := s.enrollmentRepo.Update(txCtx, enrollment); upErr != nil {
			return fmt.Errorf("failed to assign student code: %w", upErr)
		}

		resp = AssignStudentCodeResponse{
			EnrollmentID: enrollment.ID.String(),
			StudentCode:  code,
		}
		return nil
	})
	if err != nil {
		return AssignStudentCodeResponse{}, err
	}

	if !resp.AlreadyAssigned {
		writeAuditLog(ctx, s.auditRepo, actor, model.ActionAssignStudentCode, resp.EnrollmentID, resp.StudentCode, req)
	}
	return resp, nil
}

func (s *studentService) ValidateCode(code string) bool {
	return studentcode.Validate(code)
}

func (s *studentService) ParseCode(code string) (StudentCodePartsResponse, error) {
	parts, err := studentcode.Parse(code)
	if err != nil {
		return StudentCodePartsResponse{}, err
	}
	return StudentCodePartsResponse{
		Institute:   parts.Institute,
		CourseCode:  parts.CourseCode,
		Year:        parts.Year,
		BatchNumber: parts.BatchNumber,
		Sequence:    parts.Sequence,
	}, nil
}

// --- Helpers ---

// resolveYearAndBatch picks the code's year and batch number: the batch row
// wins when given, an explicit year overrides, and the defaults are the
// current year with batch 1.
func (s *studentService) resolveYearAndBatch(ctx context.Context, courseID uuid.UUID, batchID *string, yearOverride *int) (int, int, error) {
	year := time.Now().Year()
	batchNumber := 1

	if batchID != nil {
		id, err := uuid.Parse(*batchID)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid batch_id: %w", err)
		}
		batch, err := s.courseRepo.FindBatchByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, fmt.Errorf("batch not found: %w", ErrNotFound)
			}
			return 0, 0, fmt.Errorf("failed to fetch batch: %w", err)
		}
		if batch.CourseID != courseID {
			return 0, 0, fmt.Errorf("batch does not belong to the given course")
		}
		batchNumber = batch.BatchNumber
		if batch.Year > 0 {
			year = batch.Year
		}
	}

	if yearOverride != nil {
		if *yearOverride < 2000 || *yearOverride > 2099 {
			return 0, 0, fmt.Errorf("year must be between 2000 and 2099")
		}
		year = *yearOverride
	}

	return year, batchNumber, nil
}

func toEnrollmentResponse(e model.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:          e.ID.String(),
		StudentID:   e.StudentID.String(),
		CourseID:    e.CourseID.String(),
		StudentCode: e.StudentCode,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.BatchID != nil {
		v := e.BatchID.String()
		resp.BatchID = &v
	}
	return resp
}
