package service

import (
	"context"
	"fmt"
	"time"

	"training-erp/internal/model"

	"gorm.io/gorm"
)

// --- DTOs ---

type CourseRevenueRanking struct {
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name"`
	CourseCode   string `json:"course_code"`
	Payments     int64  `json:"payments"`
	TotalRevenue string `json:"total_revenue"`
}

type DashboardStatistics struct {
	TimeRangeStartDate time.Time `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time `json:"time_range_end_date"`

	TotalPayments      int64 `json:"total_payments"`
	SummarizedPayments int64 `json:"summarized_payments"`
	PendingApprovals   int64 `json:"pending_approvals"`

	TotalCourseCost       string `json:"total_course_cost"`       // sum of rounded course totals
	TotalProjectedRevenue string `json:"total_projected_revenue"` // sum of revenue summaries
	SpecialCasePayable    string `json:"special_case_payable"`
	SpecialCasePaid       string `json:"special_case_paid"`

	TopCourses []CourseRevenueRanking `json:"top_courses"`
}

// --- Interface ---

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error)
}

type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService runs read-only aggregations straight against the
// database; the per-row repositories add nothing for GROUP BY reporting.
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// --- Implementation ---

// GetStatistics aggregates costing metrics over payment records created in
// the given time bracket.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error) {
	stats := DashboardStatistics{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.PaymentMainDetail{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Count(&stats.TotalPayments).Error; err != nil {
		return stats, fmt.Errorf("failed to count payment records: %w", err)
	}

	if err := db.Model(&model.CostSummary{}).
		Joins("JOIN payment_main_details ON payment_main_details.id = cost_summaries.payment_id").
		Where("payment_main_details.created_at >= ? AND payment_main_details.created_at <= ?", startDate, endDate).
		Count(&stats.SummarizedPayments).Error; err != nil {
		return stats, fmt.Errorf("failed to count cost summaries: %w", err)
	}

	if err := db.Model(&model.PaymentMainDetail{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Where("ctm_approval = ? OR dctm01_approval = ? OR dctm02_approval = ? OR accountant_approval = ? OR sectional_approval = ?",
			model.ApprovalPending, model.ApprovalPending, model.ApprovalPending,
			model.ApprovalPending, model.ApprovalPending).
		Count(&stats.PendingApprovals).Error; err != nil {
		return stats, fmt.Errorf("failed to count pending approvals: %w", err)
	}

	var costTotals struct {
		TotalCost float64
	}
	if err := db.Table("cost_summaries").
		Select("COALESCE(SUM(cost_summaries.rounded_ct), 0) AS total_cost").
		Joins("JOIN payment_main_details ON payment_main_details.id = cost_summaries.payment_id").
		Where("payment_main_details.created_at >= ? AND payment_main_details.created_at <= ?", startDate, endDate).
		Scan(&costTotals).Error; err != nil {
		return stats, fmt.Errorf("failed to sum course costs: %w", err)
	}
	stats.TotalCourseCost = fmt.Sprintf("%.2f", costTotals.TotalCost)

	var revenueTotals struct {
		TotalRevenue float64
	}
	if err := db.Table("revenue_summaries").
		Select("COALESCE(SUM(revenue_summaries.total_revenue), 0) AS total_revenue").
		Joins("JOIN payment_main_details ON payment_main_details.id = revenue_summaries.payment_id").
		Where("payment_main_details.created_at >= ? AND payment_main_details.created_at <= ?", startDate, endDate).
		Scan(&revenueTotals).Error; err != nil {
		return stats, fmt.Errorf("failed to sum projected revenue: %w", err)
	}
	stats.TotalProjectedRevenue = fmt.Sprintf("%.2f", revenueTotals.TotalRevenue)

	var scTotals struct {
		Payable float64
		Paid    float64
	}
	if err := db.Table("special_case_payments").
		Select("COALESCE(SUM(special_case_payments.total_payable), 0) AS payable, COALESCE(SUM(special_case_payments.amount_paid), 0) AS paid").
		Joins("JOIN payment_main_details ON payment_main_details.id = special_case_payments.payment_id").
		Where("payment_main_details.created_at >= ? AND payment_main_details.created_at <= ?", startDate, endDate).
		Scan(&scTotals).Error; err != nil {
		return stats, fmt.Errorf("failed to sum special case payments: %w", err)
	}
	stats.SpecialCasePayable = fmt.Sprintf("%.2f", scTotals.Payable)
	stats.SpecialCasePaid = fmt.Sprintf("%.2f", scTotals.Paid)

	type rankedCourse struct {
		CourseID     string  `gorm:"column:course_id"`
		CourseName   string  `gorm:"column:course_name"`
		CourseCode   string  `gorm:"column:course_code"`
		Payments     int64   `gorm:"column:payments"`
		TotalRevenue float64 `gorm:"column:total_revenue"`
	}
	var ranked []rankedCourse
	if err := db.Table("revenue_summaries").
		Select("courses.id AS course_id, courses.course_name AS course_name, courses.course_code AS course_code, COUNT(revenue_summaries.id) AS payments, COALESCE(SUM(revenue_summaries.total_revenue), 0) AS total_revenue").
		Joins("JOIN courses ON courses.id = revenue_summaries.course_id").
		Joins("JOIN payment_main_details ON payment_main_details.id = revenue_summaries.payment_id").
		Where("payment_main_details.created_at >= ? AND payment_main_details.created_at <= ?", startDate, endDate).
		Group("courses.id, courses.course_name, courses.course_code").
		Order("total_revenue DESC").
		Limit(5).
		Scan(&ranked).Error; err != nil {
		return stats, fmt.Errorf("failed to rank courses by revenue: %w", err)
	}

	stats.TopCourses = make([]CourseRevenueRanking, 0, len(ranked))
	for _, r := range ranked {
		stats.TopCourses = append(stats.TopCourses, CourseRevenueRanking{
			CourseID:     r.CourseID,
			CourseName:   r.CourseName,
			CourseCode:   r.CourseCode,
			Payments:     r.Payments,
			TotalRevenue: fmt.Sprintf("%.2f", r.TotalRevenue),
		})
	}

	return stats, nil
}
