package models

import (
	"fmt"
	"time"
)

type UserRole string

const (
	RoleStudent    UserRole = "Student"
	RoleInstructor UserRole = "Instructor"
	RoleAdmin      UserRole = "Admin"
)

// ParseUserRole converts a raw role string into a UserRole. Unknown values are
// rejected instead of being defaulted, so callers must handle bad input.
func ParseUserRole(raw string) (UserRole, error) {
	switch UserRole(raw) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return UserRole(raw), nil
	default:
		return "", fmt.Errorf("invalid user role %q", raw)
	}
}

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Email    string   `json:"email" gorm:"not null;uniqueIndex;size:255" validate:"required,email"`
	FullName string   `json:"full_name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Role     UserRole `json:"role" gorm:"not null;default:Student;index" validate:"omitempty,user_role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
