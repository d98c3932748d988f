package models

import (
	"time"
)

// Split the share of one expense attributed to one beneficiary
type Split struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ExpenseID     uint      `json:"expense_id" gorm:"index:idx_splits_expense_beneficiary;not null"`
	BeneficiaryID uint      `json:"beneficiary_id" gorm:"index:idx_splits_expense_beneficiary;not null"`
	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time `json:"created_at"`
	Expense       Expense   `json:"-" gorm:"foreignKey:ExpenseID"`
	Beneficiary   User      `json:"-" gorm:"foreignKey:BeneficiaryID"`
}

func (Split) TableName() string {
	return "splits"
}
