package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User mirrors the identity provider's subject. Students taking a test
// without an account are tracked by the "anon" storage id instead.
type User struct {
	ID          string   `json:"id" gorm:"primaryKey;size:255"`
	FullName    string   `json:"full_name" gorm:"not null;size:100"`
	Email       string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PhoneNumber *string  `json:"phone_number" gorm:"size:20"`
	Role        UserRole `json:"role" gorm:"default:student;size:20"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// AnonymousUserID is the storage identity used when no authenticated user is
// known; persisted state for such attempts is keyed per browser, not per user.
const AnonymousUserID = "anon"

// StorageUserID returns the persistence key component for a possibly-empty
// user id.
func StorageUserID(userID string) string {
	if userID == "" {
		return AnonymousUserID
	}
	return userID
}
