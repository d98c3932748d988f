package models

import (
	"time"
)

// User an account created by registration
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password    string    `json:"-" gorm:"size:255;not null"`
	DisplayName string    `json:"display_name" gorm:"size:50;not null"`
	HouseholdID uint      `json:"household_id" gorm:"index;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Household   Household `json:"-" gorm:"foreignKey:HouseholdID"`
}

// TableName table name
func (User) TableName() string {
	return "users"
}
