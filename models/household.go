package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Household a group of users sharing visibility into shared expenses
type Household struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	InviteCode string    `json:"invite_code" gorm:"uniqueIndex;size:16;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Household) TableName() string {
	return "households"
}

// GenerateInviteCode returns a random 16 character hex code
func GenerateInviteCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
