package models

import (
	"time"
)

// Expense 消费记录模型
//
// OwnerID is the user who recorded and paid the expense. BeneficiaryID is set
// when the expense was paid on behalf of another household member.
type Expense struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OwnerID       uint      `json:"owner_id" gorm:"index;not null"`
	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	CategoryID    uint      `json:"category_id" gorm:"index;not null"`
	Date          time.Time `json:"date" gorm:"index;not null"`
	Description   string    `json:"description" gorm:"size:255"`
	PaymentMethod string    `json:"payment_method" gorm:"size:50"`
	BeneficiaryID *uint     `json:"beneficiary_id" gorm:"index"`
	IsShared      bool      `json:"is_shared" gorm:"default:false;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Owner         User      `json:"-" gorm:"foreignKey:OwnerID"`
	Category      Category  `json:"-" gorm:"foreignKey:CategoryID"`
	Beneficiary   *User     `json:"-" gorm:"foreignKey:BeneficiaryID"`
}

// TableName table name
func (Expense) TableName() string {
	return "expenses"
}
