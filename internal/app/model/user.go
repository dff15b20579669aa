package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	FirstName    string         `gorm:"size:50" json:"first_name"`
	LastName     string         `gorm:"size:50" json:"last_name"`
	Role         UserRole       `gorm:"type:varchar(20);default:'customer'" json:"role"`
	Age          int            `json:"age,omitempty"`
	Gender       string         `gorm:"size:20" json:"gender,omitempty"` // female, male or empty
	Location     string         `gorm:"size:100" json:"location,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
