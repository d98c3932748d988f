package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"expense-manager/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultPageSize used when a list request has no limit
	DefaultPageSize = 20
	// MaxPageSize upper bound for a single page
	MaxPageSize = 100

	// decimal(10,2)
	maxAmountCents = 9_999_999_999

	maxDescriptionLen   = 255
	maxPaymentMethodLen = 50
)

// ExpenseInput 创建消费记录参数
type ExpenseInput struct {
	Amount        float64
	CategoryID    uint
	Date          time.Time
	Description   string
	PaymentMethod string
	BeneficiaryID *uint
	IsShared      bool
}

// ExpenseUpdate 更新消费记录参数，nil 字段保持不变
type ExpenseUpdate struct {
	Amount           *float64
	CategoryID       *uint
	Date             *time.Time
	Description      *string
	PaymentMethod    *string
	BeneficiaryID    *uint
	ClearBeneficiary bool
	IsShared         *bool
}

// ExpenseFilter 列表筛选条件. From is inclusive, To is exclusive.
type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uint
	Limit      int
	Offset     int
}

// ExpenseService 消费记录服务
type ExpenseService struct {
	db         *gorm.DB
	categories *CategoryRegistry
}

// NewExpenseService 创建消费记录服务
func NewExpenseService(db *gorm.DB, categories *CategoryRegistry) *ExpenseService {
	return &ExpenseService{db: db, categories: categories}
}

func validateAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, validationError("amount must be a number")
	}
	cents := models.ToCents(amount)
	if cents <= 0 {
		return 0, validationError("amount must be greater than 0")
	}
	if cents > maxAmountCents {
		return 0, validationError("amount must not exceed %.2f", models.FromCents(maxAmountCents))
	}
	return cents, nil
}

func validateText(description, paymentMethod string) error {
	if len(description) > maxDescriptionLen {
		return validationError("description must be at most %d characters", maxDescriptionLen)
	}
	if len(paymentMethod) > maxPaymentMethodLen {
		return validationError("payment method must be at most %d characters", maxPaymentMethodLen)
	}
	return nil
}

func (s *ExpenseService) checkCategory(id uint) error {
	if _, ok := s.categories.Lookup(id); !ok {
		return validationError("category %d does not exist", id)
	}
	return nil
}

// Create 创建消费记录，同时生成自动分摊
func (s *ExpenseService) Create(ctx context.Context, ownerID uint, in ExpenseInput) (*models.Expense, error) {
	cents, err := validateAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(in.CategoryID); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, validationError("date is required")
	}
	in.Description = strings.TrimSpace(in.Description)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := validateText(in.Description, in.PaymentMethod); err != nil {
		return nil, err
	}

	expense := models.Expense{
		OwnerID:       ownerID,
		Amount:        models.FromCents(cents),
		CategoryID:    in.CategoryID,
		Date:          in.Date.UTC(),
		Description:   in.Description,
		PaymentMethod: in.PaymentMethod,
		BeneficiaryID: in.BeneficiaryID,
		IsShared:      in.IsShared,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := loadUser(tx, ownerID)
		if err != nil {
			return err
		}
		if in.BeneficiaryID != nil {
			if err := checkBeneficiary(tx, owner, *in.BeneficiaryID); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(&expense).Error; err != nil {
			return storageError("create expense", err)
		}
		return applyAutoSplits(tx, owner, &expense)
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// applyAutoSplits replaces the splits of an expense.
// Shared expenses are divided evenly across the household. A non-shared
// expense paid for someone else gets one split for the full amount.
func applyAutoSplits(tx *gorm.DB, owner *models.User, expense *models.Expense) error {
	if expense.IsShared {
		members, err := householdMembers(tx, owner)
		if err != nil {
			return err
		}
		ids := make([]uint, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		_, err = replaceSplits(tx, expense, ids)
		return err
	}
	if expense.BeneficiaryID != nil && *expense.BeneficiaryID != owner.ID {
		_, err := replaceSplits(tx, expense, []uint{*expense.BeneficiaryID})
		return err
	}
	_, err := replaceSplits(tx, expense, nil)
	return err
}

// hasOnlyAutoSplit reports whether the splits of a non-shared expense are
// still the single full-amount split created for its beneficiary
func hasOnlyAutoSplit(tx *gorm.DB, owner *models.User, expense *models.Expense) (bool, error) {
	if expense.IsShared || expense.BeneficiaryID == nil || *expense.BeneficiaryID == owner.ID {
		return false, nil
	}
	var splits []models.Split
	if err := tx.Where("expense_id = ?", expense.ID).Limit(2).Find(&splits).Error; err != nil {
		return false, storageError("load splits", err)
	}
	return len(splits) == 1 &&
		splits[0].BeneficiaryID == *expense.BeneficiaryID &&
		models.ToCents(splits[0].Amount) == models.ToCents(expense.Amount), nil
}

// Get 获取单条消费记录
func (s *ExpenseService) Get(ctx context.Context, id, ownerID uint) (*models.Expense, error) {
	return findOwnedExpense(s.db.WithContext(ctx), id, ownerID)
}

func findOwnedExpense(tx *gorm.DB, id, ownerID uint) (*models.Expense, error) {
	var expense models.Expense
	if err := tx.First(&expense, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("expense")
		}
		return nil, storageError("load expense", err)
	}
	if expense.OwnerID != ownerID {
		return nil, forbidden("expense belongs to another user")
	}
	return &expense, nil
}

func (s *ExpenseService) filtered(ctx context.Context, ownerID uint, f ExpenseFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Expense{}).Where("owner_id = ?", ownerID)
	if f.From != nil {
		q = q.Where("date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("date < ?", f.To.UTC())
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q.Session(&gorm.Session{})
}

// List 分页查询当前用户的消费记录，按日期倒序
func (s *ExpenseService) List(ctx context.Context, ownerID uint, f ExpenseFilter) ([]models.Expense, int64, error) {
	q := s.filtered(ctx, ownerID, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storageError("count expenses", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	expenses := []models.Expense{}
	if err := q.Order("date DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&expenses).Error; err != nil {
		return nil, 0, storageError("list expenses", err)
	}
	return expenses, total, nil
}

// ListAll returns every matching expense ignoring Limit and Offset
func (s *ExpenseService) ListAll(ctx context.Context, ownerID uint, f ExpenseFilter) ([]models.Expense, error) {
	expenses := []models.Expense{}
	if err := s.filtered(ctx, ownerID, f).Order("date DESC").Order("id DESC").Find(&expenses).Error; err != nil {
		return nil, storageError("list expenses", err)
	}
	return expenses, nil
}

// Update 更新消费记录. On any error the stored record is left unchanged.
func (s *ExpenseService) Update(ctx context.Context, id, ownerID uint, upd ExpenseUpdate) (*models.Expense, error) {
	var result models.Expense

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOwnedExpense(tx, id, ownerID)
		if err != nil {
			return err
		}
		updated := *current

		amountChanged := false
		if upd.Amount != nil {
			cents, err := validateAmount(*upd.Amount)
			if err != nil {
				return err
			}
			updated.Amount = models.FromCents(cents)
			amountChanged = cents != models.ToCents(current.Amount)
		}
		if upd.CategoryID != nil {
			if err := s.checkCategory(*upd.CategoryID); err != nil {
				return err
			}
			updated.CategoryID = *upd.CategoryID
		}
		if upd.Date != nil {
			if upd.Date.IsZero() {
				return validationError("date is required")
			}
			updated.Date = upd.Date.UTC()
		}
		if upd.Description != nil {
			updated.Description = strings.TrimSpace(*upd.Description)
		}
		if upd.PaymentMethod != nil {
			updated.PaymentMethod = strings.TrimSpace(*upd.PaymentMethod)
		}
		if err := validateText(updated.Description, updated.PaymentMethod); err != nil {
			return err
		}

		owner, err := loadUser(tx, ownerID)
		if err != nil {
			return err
		}

		beneficiaryChanged := false
		switch {
		case upd.ClearBeneficiary:
			updated.BeneficiaryID = nil
			beneficiaryChanged = current.BeneficiaryID != nil
		case upd.BeneficiaryID != nil:
			if err := checkBeneficiary(tx, owner, *upd.BeneficiaryID); err != nil {
				return err
			}
			b := *upd.BeneficiaryID
			updated.BeneficiaryID = &b
			beneficiaryChanged = current.BeneficiaryID == nil || *current.BeneficiaryID != b
		}
		if upd.IsShared != nil {
			updated.IsShared = *upd.IsShared
		}
		sharedChanged := updated.IsShared != current.IsShared

		if err := tx.Omit(clause.Associations).Save(&updated).Error; err != nil {
			return storageError("update expense", err)
		}

		switch {
		case updated.IsShared && (amountChanged || sharedChanged):
			if err := applyAutoSplits(tx, owner, &updated); err != nil {
				return err
			}
		case !updated.IsShared && (sharedChanged || beneficiaryChanged):
			if err := applyAutoSplits(tx, owner, &updated); err != nil {
				return err
			}
		case amountChanged:
			auto, err := hasOnlyAutoSplit(tx, owner, current)
			if err != nil {
				return err
			}
			if auto {
				if err := applyAutoSplits(tx, owner, &updated); err != nil {
					return err
				}
				break
			}
			sum, err := splitSumCents(tx, id)
			if err != nil {
				return err
			}
			if sum > models.ToCents(updated.Amount) {
				return validationError("amount %.2f is below the %.2f already split", updated.Amount, models.FromCents(sum))
			}
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete 删除消费记录及其分摊
func (s *ExpenseService) Delete(ctx context.Context, id, ownerID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedExpense(tx, id, ownerID); err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", id).Delete(&models.Split{}).Error; err != nil {
			return storageError("delete splits", err)
		}
		if err := tx.Delete(&models.Expense{}, id).Error; err != nil {
			return storageError("delete expense", err)
		}
		return nil
	})
}
