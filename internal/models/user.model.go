package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleAuditor    UserRole = "auditor"
	RoleTechnician UserRole = "technician"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuditor, RoleTechnician:
		return true
	}
	return false
}

// IsBackOffice reports whether the role may act on any assignment, not
// just its own
func (r UserRole) IsBackOffice() bool {
	return r == RoleAdmin || r == RoleAuditor
}

type User struct {
	BaseUUIDModel
	Name         string     `gorm:"type:text;not null"           json:"name"`
	Email        string     `gorm:"type:text;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:text;not null"           json:"-"`
	Role         UserRole   `gorm:"type:text;not null;index"     json:"role"`
	IsActive     bool       `gorm:"type:bool;default:true"       json:"isActive"`
	LastLoginAt  *time.Time `gorm:"type:timestamp"               json:"lastLoginAt,omitempty"`
}

// UserProfile is the public view of a user returned by the API
type UserProfile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        UserRole   `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:          u.ID.String(),
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=admin auditor technician"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin auditor technician"`
}
