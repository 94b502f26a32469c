package database

import (
	"log"
	"time"

	"training-erp/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.Course{},
		&model.Batch{},
		&model.Student{},
		&model.Enrollment{},
		&model.PaymentMainDetail{},
		&model.DevelopmentCost{},
		&model.DeliveryCost{},
		&model.OverheadCost{},
		&model.Rate{},
		&model.CostSummary{},
		&model.RevenueSummary{},
		&model.SpecialCasePayment{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
