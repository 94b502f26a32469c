package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type studentFixture struct {
	enrollments *fakeEnrollmentRepo
	courses     *fakeCourseRepo
	audit       *fakeAuditRepo
	svc         StudentService
	course      *model.Course
	batch       *model.Batch
}

func newStudentFixture() *studentFixture {
	f := &studentFixture{
		enrollments: newFakeEnrollmentRepo(),
		courses:     newFakeCourseRepo(),
		audit:       &fakeAuditRepo{},
	}
	f.svc = NewStudentService(f.enrollments, f.courses, f.audit, &fakeTxManager{})

	f.course = &model.Course{ID: uuid.New(), CourseCode: "MPACC", CourseName: "Accountancy"}
	f.courses.courses[f.course.ID] = f.course

	f.batch = &model.Batch{ID: uuid.New(), CourseID: f.course.ID, BatchNumber: 1, Year: 2025}
	f.courses.batches[f.batch.ID] = f.batch

	return f
}

func (f *studentFixture) actor() Actor {
	return Actor{UserID: uuid.NewString(), Role: model.RoleCoordinator}
}

func (f *studentFixture) seedEnrollment(code *string) *model.Enrollment {
	e := &model.Enrollment{
		ID:          uuid.New(),
		StudentID:   uuid.New(),
		CourseID:    f.course.ID,
		BatchID:     &f.batch.ID,
		StudentCode: code,
	}
	f.enrollments.enrollments[e.ID] = e
	return e
}

func (f *studentFixture) batchIDStr() *string {
	v := f.batch.ID.String()
	return &v
}

func TestGenerateCodeFillsGaps(t *testing.T) {
	f := newStudentFixture()
	for _, code := range []string{"MP-ACC25.1-001", "MP-ACC25.1-002", "MP-ACC25.1-004"} {
		f.seedEnrollment(strPtr(code))
	}

	resp, err := f.svc.GenerateCode(context.Background(), f.actor(), GenerateStudentCodeRequest{
		CourseID: f.course.ID.String(),
		BatchID:  f.batchIDStr(),
	})
	require.NoError(t, err)

	assert.Equal(t, "MP-ACC25.1-003", resp.StudentCode)
	assert.Equal(t, 3, resp.Sequence)
	assert.Equal(t, 2025, resp.Year)
	assert.Equal(t, 1, resp.BatchNumber)
}

func TestGenerateCodeDefaults(t *testing.T) {
	f := newStudentFixture()

	resp, err := f.svc.GenerateCode(context.Background(), f.actor(), GenerateStudentCodeRequest{
		CourseID: f.course.ID.String(),
	})
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, year, resp.Year)
	assert.Equal(t, 1, resp.BatchNumber)
	assert.Equal(t, 1, resp.Sequence)
	assert.Equal(t, fmt.Sprintf("MP-ACC%02d.1-001", year%100), resp.StudentCode)
}

func TestGenerateCodeYearOverride(t *testing.T) {
	f := newStudentFixture()

	resp, err := f.svc.GenerateCode(context.Background(), f.actor(), GenerateStudentCodeRequest{
		CourseID: f.course.ID.String(),
		BatchID:  f.batchIDStr(),
		Year:     intPtr(2024),
	})
	require.NoError(t, err)
	assert.Equal(t, "MP-ACC24.1-001", resp.StudentCode)

	_, err = f.svc.GenerateCode(context.Background(), f.actor(), GenerateStudentCodeRequest{
		CourseID: f.course.ID.String(),
		Year:     intPtr(1999),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year must be between 2000 and 2099")
}

func TestGenerateCodeCourseNotFound(t *testing.T) {
	f := newStudentFixture()

	_, err := f.svc.GenerateCode(context.Background(), f.actor(), GenerateStudentCodeRequest{
		CourseID: uuid.NewString(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssignCodeIsIdempotent(t *testing.T) {
	f := newStudentFixture()
	ctx := context.Background()
	enrollment := f.seedEnrollment(nil)

	first, err := f.svc.AssignCode(ctx, f.actor(), AssignStudentCodeRequest{
		EnrollmentID: enrollment.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "MP-ACC25.1-001", first.StudentCode)
	assert.False(t, first.AlreadyAssigned)
	require.NotNil(t, enrollment.StudentCode)
	assert.Equal(t, first.StudentCode, *enrollment.StudentCode)

	second, err := f.svc.AssignCode(ctx, f.actor(), AssignStudentCodeRequest{
		EnrollmentID: enrollment.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, second.AlreadyAssigned)
	assert.Equal(t, first.StudentCode, second.StudentCode)

	// Only the first assignment hits the audit trail.
	assert.Len(t, f.audit.entries, 1)
}

func TestAssignCodeSequencesWithinGroup(t *testing.T) {
	f := newStudentFixture()
	ctx := context.Background()
	a := f.seedEnrollment(nil)
	b := f.seedEnrollment(nil)

	respA, err := f.svc.AssignCode(ctx, f.actor(), AssignStudentCodeRequest{EnrollmentID: a.ID.String()})
	require.NoError(t, err)
	respB, err := f.svc.AssignCode(ctx, f.actor(), AssignStudentCodeRequest{EnrollmentID: b.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, "MP-ACC25.1-001", respA.StudentCode)
	assert.Equal(t, "MP-ACC25.1-002", respB.StudentCode)
}

func TestAssignCodeEnrollmentNotFound(t *testing.T) {
	f := newStudentFixture()

	_, err := f.svc.AssignCode(context.Background(), f.actor(), AssignStudentCodeRequest{
		EnrollmentID: uuid.NewString(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnrollRejectsForeignBatch(t *testing.T) {
	f := newStudentFixture()
	ctx := context.Background()

	student := &model.Student{ID: uuid.New(), FullName: "Nimal Silva", Email: "nimal@example.com"}
	f.enrollments.students[student.ID] = student

	otherCourse := &model.Course{ID: uuid.New(), CourseCode: "MPFIN"}
	f.courses.courses[otherCourse.ID] = otherCourse
	foreignBatch := &model.Batch{ID: uuid.New(), CourseID: otherCourse.ID, BatchNumber: 2, Year: 2025}
	f.courses.batches[foreignBatch.ID] = foreignBatch
	foreignID := foreignBatch.ID.String()

	_, err := f.svc.Enroll(ctx, f.actor(), EnrollStudentRequest{
		StudentID: student.ID.String(),
		CourseID:  f.course.ID.String(),
		BatchID:   &foreignID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch does not belong to the given course")

	resp, err := f.svc.Enroll(ctx, f.actor(), EnrollStudentRequest{
		StudentID: student.ID.String(),
		CourseID:  f.course.ID.String(),
		BatchID:   f.batchIDStr(),
	})
	require.NoError(t, err)
	assert.Equal(t, student.ID.String(), resp.StudentID)
	require.NotNil(t, resp.BatchID)
	assert.Equal(t, f.batch.ID.String(), *resp.BatchID)
}

func TestValidateAndParseCode(t *testing.T) {
	f := newStudentFixture()

	assert.True(t, f.svc.ValidateCode("MP-ACC25.1-007"))
	assert.False(t, f.svc.ValidateCode("ACC25.1-007"))

	parts, err := f.svc.ParseCode("MP-ACC25.1-007")
	require.NoError(t, err)
	assert.Equal(t, "ACC", parts.CourseCode)
	assert.Equal(t, 2025, parts.Year)
	assert.Equal(t, 1, parts.BatchNumber)
	assert.Equal(t, 7, parts.Sequence)

	_, err = f.svc.ParseCode("MP-ACC25.1-07")
	require.Error(t, err)
}

func intPtr(v int) *int { return &v }
