package service

import (
	"context"
	"errors"
	"sort"

	"expense-manager/models"

	"gorm.io/gorm"
)

// SplitLedger 分摊账本
type SplitLedger struct {
	db *gorm.DB
}

// NewSplitLedger 创建分摊账本
func NewSplitLedger(db *gorm.DB) *SplitLedger {
	return &SplitLedger{db: db}
}

// Balance what a user fronted for others versus what others fronted for them.
// A positive Net means the household owes the user.
type Balance struct {
	UserID         uint                  `json:"user_id"`
	PaidForOthers  float64               `json:"paid_for_others"`
	OwedToOthers   float64               `json:"owed_to_others"`
	Net            float64               `json:"net"`
	Counterparties []CounterpartyBalance `json:"counterparties"`
}

// CounterpartyBalance net position against one other member.
// Positive: the counterparty owes the user.
type CounterpartyBalance struct {
	UserID      uint    `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Net         float64 `json:"net"`
}

func splitSumCents(tx *gorm.DB, expenseID uint) (int64, error) {
	var splits []models.Split
	if err := tx.Where("expense_id = ?", expenseID).Find(&splits).Error; err != nil {
		return 0, storageError("load splits", err)
	}
	var sum int64
	for _, sp := range splits {
		sum += models.ToCents(sp.Amount)
	}
	return sum, nil
}

// replaceSplits drops the current splits of expense and divides its amount
// evenly across beneficiaries. Zero-cent shares are not stored.
func replaceSplits(tx *gorm.DB, expense *models.Expense, beneficiaries []uint) ([]models.Split, error) {
	if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.Split{}).Error; err != nil {
		return nil, storageError("delete splits", err)
	}

	splits := []models.Split{}
	shares := models.SplitEvenly(models.ToCents(expense.Amount), len(beneficiaries))
	for i, id := range beneficiaries {
		if shares[i] <= 0 {
			continue
		}
		splits = append(splits, models.Split{
			ExpenseID:     expense.ID,
			BeneficiaryID: id,
			Amount:        models.FromCents(shares[i]),
		})
	}
	if len(splits) == 0 {
		return splits, nil
	}
	if err := tx.Omit("Expense", "Beneficiary").Create(&splits).Error; err != nil {
		return nil, storageError("create splits", err)
	}
	return splits, nil
}

// CreateSplit 为消费记录添加一条分摊
func (l *SplitLedger) CreateSplit(ctx context.Context, expenseID, ownerID, beneficiaryID uint, amount float64) (*models.Split, error) {
	cents, err := validateAmount(amount)
	if err != nil {
		return nil, err
	}

	split := models.Split{
		ExpenseID:     expenseID,
		BeneficiaryID: beneficiaryID,
		Amount:        models.FromCents(cents),
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := findOwnedExpense(tx, expenseID, ownerID)
		if err != nil {
			return err
		}
		owner, err := loadUser(tx, ownerID)
		if err != nil {
			return err
		}
		if err := checkBeneficiary(tx, owner, beneficiaryID); err != nil {
			return err
		}
		sum, err := splitSumCents(tx, expenseID)
		if err != nil {
			return err
		}
		if sum+cents > models.ToCents(expense.Amount) {
			return validationError("splits would total %.2f, more than the expense amount %.2f",
				models.FromCents(sum+cents), expense.Amount)
		}
		if err := tx.Omit("Expense", "Beneficiary").Create(&split).Error; err != nil {
			return storageError("create split", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &split, nil
}

// ListForExpense 获取消费记录的全部分摊. A deleted expense has no splits.
func (l *SplitLedger) ListForExpense(ctx context.Context, expenseID uint) ([]models.Split, error) {
	splits := []models.Split{}
	if err := l.db.WithContext(ctx).Where("expense_id = ?", expenseID).Order("id").Find(&splits).Error; err != nil {
		return nil, storageError("list splits", err)
	}
	return splits, nil
}

// SplitEvenly replaces all splits of an expense with an even division
func (l *SplitLedger) SplitEvenly(ctx context.Context, expenseID, ownerID uint, beneficiaries []uint) ([]models.Split, error) {
	if len(beneficiaries) == 0 {
		return nil, validationError("at least one beneficiary is required")
	}
	seen := make(map[uint]bool, len(beneficiaries))
	unique := make([]uint, 0, len(beneficiaries))
	for _, id := range beneficiaries {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var splits []models.Split
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expense, err := findOwnedExpense(tx, expenseID, ownerID)
		if err != nil {
			return err
		}
		owner, err := loadUser(tx, ownerID)
		if err != nil {
			return err
		}
		for _, id := range unique {
			if err := checkBeneficiary(tx, owner, id); err != nil {
				return err
			}
		}
		splits, err = replaceSplits(tx, expense, unique)
		return err
	})
	if err != nil {
		return nil, err
	}
	return splits, nil
}

type balanceRow struct {
	OwnerID       uint
	BeneficiaryID uint
	Amount        float64
}

// Balance 计算用户与家庭成员之间的往来
func (l *SplitLedger) Balance(ctx context.Context, userID uint) (*Balance, error) {
	db := l.db.WithContext(ctx)

	var rows []balanceRow
	err := db.Table("splits").
		Select("expenses.owner_id AS owner_id, splits.beneficiary_id AS beneficiary_id, splits.amount AS amount").
		Joins("JOIN expenses ON expenses.id = splits.expense_id").
		Where("expenses.owner_id = ? OR splits.beneficiary_id = ?", userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("load balance", err)
	}

	var paid, owed int64
	perUser := map[uint]int64{}
	for _, r := range rows {
		if r.OwnerID == r.BeneficiaryID {
			continue
		}
		cents := models.ToCents(r.Amount)
		switch {
		case r.OwnerID == userID:
			paid += cents
			perUser[r.BeneficiaryID] += cents
		case r.BeneficiaryID == userID:
			owed += cents
			perUser[r.OwnerID] -= cents
		}
	}

	balance := &Balance{
		UserID:         userID,
		PaidForOthers:  models.FromCents(paid),
		OwedToOthers:   models.FromCents(owed),
		Net:            models.FromCents(paid - owed),
		Counterparties: []CounterpartyBalance{},
	}
	if len(perUser) == 0 {
		return balance, nil
	}

	ids := make([]uint, 0, len(perUser))
	for id := range perUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageError("load counterparties", err)
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	for _, id := range ids {
		balance.Counterparties = append(balance.Counterparties, CounterpartyBalance{
			UserID:      id,
			DisplayName: names[id],
			Net:         models.FromCents(perUser[id]),
		})
	}
	return balance, nil
}
