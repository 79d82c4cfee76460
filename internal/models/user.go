package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role determines what a user may do across the platform.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleResponder Role = "responder"
	RoleReporter  Role = "reporter"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResponder, RoleReporter:
		return true
	}
	return false
}

// User describes a platform account: reporters file incidents, responders
// work them, admins coordinate.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Role    Role   `gorm:"type:varchar(20);not null;default:'reporter';index" json:"role"`
	Phone   string `gorm:"type:varchar(15)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
	Avatar  string `gorm:"type:text" json:"avatar"`

	// IsAvailable only carries meaning for responders. No column default:
	// a default would make gorm omit an explicit false on insert.
	IsAvailable bool `json:"is_available"`
	IsActive    bool `gorm:"default:true" json:"is_active"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
