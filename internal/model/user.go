package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Institute role constants. Privileged roles bypass per-record ownership
// checks on payment data.
const (
	RoleSuperAdmin     = "SuperAdmin"
	RoleFinanceManager = "finance_manager"
	RoleCTM            = "CTM"
	RoleDCTM01         = "DCTM01"
	RoleDCTM02         = "DCTM02"
	RoleSectionalHead  = "sectional_head"
	RoleCoordinator    = "coordinator"
)

var privilegedRoles = map[string]bool{
	RoleSuperAdmin:     true,
	RoleFinanceManager: true,
	RoleCTM:            true,
	RoleDCTM01:         true,
	RoleDCTM02:         true,
	RoleSectionalHead:  true,
}

// IsPrivilegedRole reports whether the role may act on payment records it
// does not own.
func IsPrivilegedRole(role string) bool {
	return privilegedRoles[role]
}

// User represents the central user entity for logic and database structure
type User struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20);not null" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
