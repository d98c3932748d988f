package models

import (
	"time"
)

// MonthlyIncome income for one user and calendar month.
// Month is always the first day of the month at 00:00 UTC.
type MonthlyIncome struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_income_user_month;not null"`
	Month     time.Time `json:"month" gorm:"uniqueIndex:idx_income_user_month;not null"`
	Amount    float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}

func (MonthlyIncome) TableName() string {
	return "monthly_incomes"
}

// MonthStart normalizes t to the first day of its month in UTC
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
