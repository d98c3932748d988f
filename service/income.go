package service

import (
	"context"
	"errors"
	"math"
	"time"

	"expense-manager/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncomeService 月收入服务
type IncomeService struct {
	db *gorm.DB
}

// NewIncomeService 创建月收入服务
func NewIncomeService(db *gorm.DB) *IncomeService {
	return &IncomeService{db: db}
}

// SetMonthlyIncome 设置某月收入，已存在则覆盖
func (s *IncomeService) SetMonthlyIncome(ctx context.Context, userID uint, month time.Time, amount float64) (*models.MonthlyIncome, error) {
	if month.IsZero() {
		return nil, validationError("month is required")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, validationError("amount must be a number")
	}
	cents := models.ToCents(amount)
	if cents < 0 {
		return nil, validationError("income must not be negative")
	}
	if cents > maxAmountCents {
		return nil, validationError("income must not exceed %.2f", models.FromCents(maxAmountCents))
	}
	month = models.MonthStart(month)

	var income models.MonthlyIncome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND month = ?", userID, month).First(&income).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			income = models.MonthlyIncome{UserID: userID, Month: month, Amount: models.FromCents(cents)}
			if err := tx.Omit(clause.Associations).Create(&income).Error; err != nil {
				return storageError("create income", err)
			}
		case err != nil:
			return storageError("load income", err)
		default:
			income.Amount = models.FromCents(cents)
			if err := tx.Omit(clause.Associations).Save(&income).Error; err != nil {
				return storageError("update income", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &income, nil
}

// GetMonthlyIncome 获取某月收入
func (s *IncomeService) GetMonthlyIncome(ctx context.Context, userID uint, month time.Time) (*models.MonthlyIncome, error) {
	var income models.MonthlyIncome
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND month = ?", userID, models.MonthStart(month)).
		First(&income).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("income")
		}
		return nil, storageError("load income", err)
	}
	return &income, nil
}

// History 收入历史，最近的月份在前
func (s *IncomeService) History(ctx context.Context, userID uint, limit int) ([]models.MonthlyIncome, error) {
	if limit <= 0 {
		limit = 12
	}
	if limit > MaxMonthWindow {
		limit = MaxMonthWindow
	}
	incomes := []models.MonthlyIncome{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("month DESC").
		Limit(limit).
		Find(&incomes).Error
	if err != nil {
		return nil, storageError("load income history", err)
	}
	return incomes, nil
}
