package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive = "active"
	StatusLocked = "locked"
)

type User struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string     `gorm:"not null;index" json:"display_name"`
	Password    string     `gorm:"column:password_hash;not null" json:"-"`
	Role        string     `gorm:"default:'user';not null" json:"role"`
	Status      string     `gorm:"default:'active';not null;index" json:"status"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Bio         string     `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = StatusActive
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

func (User) TableName() string {
	return "users"
}

// IsLocked reports whether sign-in is blocked for the account.
func (user *User) IsLocked() bool {
	return user.Status == StatusLocked
}

// StatusLabel is the status as shown on the dashboard.
func (user *User) StatusLabel() string {
	if user.IsLocked() {
		return "Khóa"
	}
	return "Hoạt động"
}
