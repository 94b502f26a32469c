package service

import (
	"context"
	"strings"

	"training-erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mimic just enough persistence behavior
// for the service tests: missing rows surface gorm.ErrRecordNotFound, and
// returned pointers alias the stored rows so tests can observe mutations.

type fakeTxManager struct {
	beginErr error
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(ctx)
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.PaymentMainDetail
	resetErr error
	resets   int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.PaymentMainDetail)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *model.PaymentMainDetail) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakePaymentRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentMainDetail, error) {
	return f.FindByID(ctx, id)
}

func (f *fakePaymentRepo) List(ctx context.Context, page, limit int) ([]model.PaymentMainDetail, int64, error) {
	out := make([]model.PaymentMainDetail, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePaymentRepo) ResetApprovals(ctx context.Context, paymentID uuid.UUID, actingUserID *uuid.UUID) (int64, error) {
	if f.resetErr != nil {
		return 0, f.resetErr
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return 0, nil
	}
	p.CTMApproval = model.ApprovalPending
	p.DCTM01Approval = model.ApprovalPending
	p.DCTM02Approval = model.ApprovalPending
	p.AccountantApproval = model.ApprovalPending
	p.SectionalApproval = model.ApprovalPending
	p.CTMDetails = nil
	p.DCTM01Details = nil
	p.DCTM02Details = nil
	p.AccountantDetails = nil
	p.SectionalDetails = nil
	p.SectionType = nil
	p.UpdatedByID = actingUserID
	f.resets++
	return 1, nil
}

func (f *fakePaymentRepo) UpdateApproval(ctx context.Context, paymentID uuid.UUID, updates map[string]interface{}) (int64, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return 0, nil
	}
	for col, val := range updates {
		switch col {
		case "ctm_approval":
			p.CTMApproval = val.(string)
		case "dctm01_approval":
			p.DCTM01Approval = val.(string)
		case "dctm02_approval":
			p.DCTM02Approval = val.(string)
		case "accountant_approval":
			p.AccountantApproval = val.(string)
		case "sectional_approval":
			p.SectionalApproval = val.(string)
		case "ctm_details":
			s := val.(string)
			p.CTMDetails = &s
		case "dctm01_details":
			s := val.(string)
			p.DCTM01Details = &s
		case "dctm02_details":
			s := val.(string)
			p.DCTM02Details = &s
		case "accountant_details":
			s := val.(string)
			p.AccountantDetails = &s
		case "sectional_details":
			s := val.(string)
			p.SectionalDetails = &s
		case "section_type":
			s := val.(string)
			p.SectionType = &s
		case "updated_by_id":
			p.UpdatedByID, _ = val.(*uuid.UUID)
		}
	}
	return 1, nil
}

type fakeCostComponentRepo struct {
	dev      map[uuid.UUID]*model.DevelopmentCost
	delivery map[uuid.UUID]*model.DeliveryCost
	overhead map[uuid.UUID]*model.OverheadCost
}

func newFakeCostComponentRepo() *fakeCostComponentRepo {
	return &fakeCostComponentRepo{
		dev:      make(map[uuid.UUID]*model.DevelopmentCost),
		delivery: make(map[uuid.UUID]*model.DeliveryCost),
		overhead: make(map[uuid.UUID]*model.OverheadCost),
	}
}

func (f *fakeCostComponentRepo) CreateDevelopment(ctx context.Context, row *model.DevelopmentCost) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.dev[row.PaymentID] = row
	return nil
}

func (f *fakeCostComponentRepo) CreateDelivery(ctx context.Context, row *model.DeliveryCost) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.delivery[row.PaymentID] = row
	return nil
}

func (f *fakeCostComponentRepo) CreateOverhead(ctx context.Context, row *model.OverheadCost) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.overhead[row.PaymentID] = row
	return nil
}

func (f *fakeCostComponentRepo) LatestDevelopment(ctx context.Context, paymentID uuid.UUID) (*model.DevelopmentCost, error) {
	row, ok := f.dev[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeCostComponentRepo) LatestDelivery(ctx context.Context, paymentID uuid.UUID) (*model.DeliveryCost, error) {
	row, ok := f.delivery[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeCostComponentRepo) LatestOverhead(ctx context.Context, paymentID uuid.UUID) (*model.OverheadCost, error) {
	row, ok := f.overhead[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeCostComponentRepo) UpdateDelivery(ctx context.Context, row *model.DeliveryCost) error {
	f.delivery[row.PaymentID] = row
	return nil
}

type fakeRateRepo struct {
	rates map[uuid.UUID]*model.Rate
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rates: make(map[uuid.UUID]*model.Rate)}
}

func (f *fakeRateRepo) seed(category, name string, value decimal.Decimal) {
	rate := &model.Rate{ID: uuid.New(), Category: category, RateName: name, RateValue: value}
	f.rates[rate.ID] = rate
}

func (f *fakeRateRepo) Create(ctx context.Context, rate *model.Rate) error {
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	f.rates[rate.ID] = rate
	return nil
}

func (f *fakeRateRepo) Update(ctx context.Context, rate *model.Rate) error {
	f.rates[rate.ID] = rate
	return nil
}

func (f *fakeRateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rates, id)
	return nil
}

func (f *fakeRateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error) {
	rate, ok := f.rates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rate, nil
}

func (f *fakeRateRepo) FindByName(ctx context.Context, category, name string) (*model.Rate, error) {
	for _, rate := range f.rates {
		if rate.Category == category && rate.RateName == name {
			return rate, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRateRepo) ListByCategory(ctx context.Context, category string) ([]model.Rate, error) {
	var out []model.Rate
	for _, rate := range f.rates {
		if rate.Category == category {
			out = append(out, *rate)
		}
	}
	return out, nil
}

func (f *fakeRateRepo) ValuesByCategory(ctx context.Context, category string) (map[string]decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal)
	for _, rate := range f.rates {
		if rate.Category == category {
			values[rate.RateName] = rate.RateValue
		}
	}
	return values, nil
}

type fakeCostSummaryRepo struct {
	byPayment map[uuid.UUID]*model.CostSummary
}

func newFakeCostSummaryRepo() *fakeCostSummaryRepo {
	return &fakeCostSummaryRepo{byPayment: make(map[uuid.UUID]*model.CostSummary)}
}

func (f *fakeCostSummaryRepo) Create(ctx context.Context, summary *model.CostSummary) error {
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	f.byPayment[summary.PaymentID] = summary
	return nil
}

func (f *fakeCostSummaryRepo) Update(ctx context.Context, summary *model.CostSummary) error {
	f.byPayment[summary.PaymentID] = summary
	return nil
}

func (f *fakeCostSummaryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CostSummary, error) {
	for _, s := range f.byPayment {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCostSummaryRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.CostSummary, error) {
	s, ok := f.byPayment[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeCostSummaryRepo) DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error {
	delete(f.byPayment, paymentID)
	return nil
}

type fakeRevenueRepo struct {
	byPayment map[uuid.UUID]*model.RevenueSummary
}

func newFakeRevenueRepo() *fakeRevenueRepo {
	return &fakeRevenueRepo{byPayment: make(map[uuid.UUID]*model.RevenueSummary)}
}

func (f *fakeRevenueRepo) Upsert(ctx context.Context, summary *model.RevenueSummary) error {
	if existing, ok := f.byPayment[summary.PaymentID]; ok {
		existing.CourseID = summary.CourseID
		existing.BatchID = summary.BatchID
		existing.ParticipantCount = summary.ParticipantCount
		existing.TotalRevenue = summary.TotalRevenue
		*summary = *existing
		return nil
	}
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	f.byPayment[summary.PaymentID] = summary
	return nil
}

func (f *fakeRevenueRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.RevenueSummary, error) {
	s, ok := f.byPayment[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeRevenueRepo) DeleteByPaymentID(ctx context.Context, paymentID uuid.UUID) error {
	delete(f.byPayment, paymentID)
	return nil
}

type fakeSpecialCaseRepo struct {
	rows map[uuid.UUID]*model.SpecialCasePayment
}

func newFakeSpecialCaseRepo() *fakeSpecialCaseRepo {
	return &fakeSpecialCaseRepo{rows: make(map[uuid.UUID]*model.SpecialCasePayment)}
}

func (f *fakeSpecialCaseRepo) Create(ctx context.Context, payment *model.SpecialCasePayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.rows[payment.ID] = payment
	return nil
}

func (f *fakeSpecialCaseRepo) Update(ctx context.Context, payment *model.SpecialCasePayment) error {
	f.rows[payment.ID] = payment
	return nil
}

func (f *fakeSpecialCaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeSpecialCaseRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SpecialCasePayment, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeSpecialCaseRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]model.SpecialCasePayment, error) {
	var out []model.SpecialCasePayment
	for _, row := range f.rows {
		if row.PaymentID == paymentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeSpecialCaseRepo) DeleteByPaymentAndTitle(ctx context.Context, paymentID uuid.UUID, title string) error {
	for id, row := range f.rows {
		if row.PaymentID == paymentID && row.Title == title {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSpecialCaseRepo) DeleteAllByPayment(ctx context.Context, paymentID uuid.UUID) error {
	for id, row := range f.rows {
		if row.PaymentID == paymentID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSpecialCaseRepo) SumTotalPayable(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, row := range f.rows {
		if row.PaymentID == paymentID {
			sum = sum.Add(row.TotalPayable)
		}
	}
	return sum, nil
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	out := make([]model.AuditLog, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

type fakeCourseRepo struct {
	courses map[uuid.UUID]*model.Course
	batches map[uuid.UUID]*model.Batch
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses: make(map[uuid.UUID]*model.Course),
		batches: make(map[uuid.UUID]*model.Batch),
	}
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *model.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCourseRepo) FindByCode(ctx context.Context, code string) (*model.Course, error) {
	for _, c := range f.courses {
		if c.CourseCode == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) List(ctx context.Context, page, limit int) ([]model.Course, int64, error) {
	out := make([]model.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCourseRepo) CreateBatch(ctx context.Context, batch *model.Batch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	f.batches[batch.ID] = batch
	return nil
}

func (f *fakeCourseRepo) FindBatchByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeCourseRepo) ListBatches(ctx context.Context, courseID uuid.UUID) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range f.batches {
		if b.CourseID == courseID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeEnrollmentRepo struct {
	students    map[uuid.UUID]*model.Student
	enrollments map[uuid.UUID]*model.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		students:    make(map[uuid.UUID]*model.Student),
		enrollments: make(map[uuid.UUID]*model.Enrollment),
	}
}

func (f *fakeEnrollmentRepo) CreateStudent(ctx context.Context, student *model.Student) error {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	f.students[student.ID] = student
	return nil
}

func (f *fakeEnrollmentRepo) FindStudentByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	f.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) Update(ctx context.Context, enrollment *model.Enrollment) error {
	f.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (f *fakeEnrollmentRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeEnrollmentRepo) CodesByPrefixForUpdate(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	for _, e := range f.enrollments {
		if e.StudentCode != nil && strings.HasPrefix(*e.StudentCode, prefix) {
			codes = append(codes, *e.StudentCode)
		}
	}
	return codes, nil
}
