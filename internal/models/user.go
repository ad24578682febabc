package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	Username string   `json:"username" gorm:"uniqueIndex;not null;size:80"`
	FullName string   `json:"full_name" gorm:"size:120"`
	Email    string   `json:"email" gorm:"size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// RosterConfig caps how many students may enroll. A single row exists;
// the cap is consulted on every enrollment.
type RosterConfig struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	MaxMembers int       `json:"max_members" gorm:"not null;default:50"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (RosterConfig) TableName() string {
	return "roster_config"
}
