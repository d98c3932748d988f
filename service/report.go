package service

import (
	"context"
	"fmt"
	"time"

	"expense-manager/models"

	"gorm.io/gorm"
)

const (
	// MaxMonthWindow largest accepted breakdown window
	MaxMonthWindow = 60

	monthKeyLayout = "2006-01"
)

// ScopeKind selects whose expenses a report covers
type ScopeKind string

const (
	ScopeUser      ScopeKind = "user"
	ScopeHousehold ScopeKind = "household"
)

// Scope a user's own expenses, or the shared expenses of a household
type Scope struct {
	Kind ScopeKind
	ID   uint
}

// UserScope report over one user's expenses
func UserScope(userID uint) Scope {
	return Scope{Kind: ScopeUser, ID: userID}
}

// HouseholdScope report over the shared expenses of all household members
func HouseholdScope(householdID uint) Scope {
	return Scope{Kind: ScopeHousehold, ID: householdID}
}

// Breakdown 按月份和类别汇总的消费数据，用于堆叠柱状图
type Breakdown struct {
	Scope  ScopeKind      `json:"scope"`
	Window int            `json:"window"`
	Months []string       `json:"months"`
	Rows   []BreakdownRow `json:"rows"`
	Totals []MonthTotal   `json:"totals"`
}

// BreakdownRow one (month, category) cell
type BreakdownRow struct {
	Month      string  `json:"month"`
	CategoryID uint    `json:"category_id"`
	Category   string  `json:"category"`
	Color      string  `json:"color"`
	Amount     float64 `json:"amount"`
}

// MonthTotal sum of all categories for one month
type MonthTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// MonthlyComparison income against spending for one month
type MonthlyComparison struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// ReportService 统计报表服务
type ReportService struct {
	db            *gorm.DB
	categories    *CategoryRegistry
	defaultWindow int
	now           func() time.Time
}

// NewReportService 创建报表服务. defaultWindow is used when a caller passes 0.
func NewReportService(db *gorm.DB, categories *CategoryRegistry, defaultWindow int) *ReportService {
	if defaultWindow <= 0 || defaultWindow > MaxMonthWindow {
		defaultWindow = 6
	}
	return &ReportService{
		db:            db,
		categories:    categories,
		defaultWindow: defaultWindow,
		now:           time.Now,
	}
}

// months resolves the window into month keys and the [start, end) range
func (s *ReportService) months(window int) ([]string, time.Time, time.Time, error) {
	if window == 0 {
		window = s.defaultWindow
	}
	if window < 1 || window > MaxMonthWindow {
		return nil, time.Time{}, time.Time{}, validationError("window must be between 1 and %d months", MaxMonthWindow)
	}

	current := models.MonthStart(s.now().UTC())
	start := current.AddDate(0, -(window - 1), 0)
	end := current.AddDate(0, 1, 0)

	keys := make([]string, 0, window)
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		keys = append(keys, m.Format(monthKeyLayout))
	}
	return keys, start, end, nil
}

type amountRow struct {
	CategoryID uint
	Amount     float64
	Date       time.Time
}

// MonthlyBreakdown 最近 window 个自然月（含当月）的分类汇总，缺失的单元格补零
func (s *ReportService) MonthlyBreakdown(ctx context.Context, scope Scope, window int) (*Breakdown, error) {
	keys, start, end, err := s.months(window)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("category_id, amount, date").
		Where("date >= ? AND date < ?", start, end)
	switch scope.Kind {
	case ScopeUser:
		q = q.Where("owner_id = ?", scope.ID)
	case ScopeHousehold:
		members := s.db.WithContext(ctx).Model(&models.User{}).Select("id").Where("household_id = ?", scope.ID)
		q = q.Where("owner_id IN (?) AND is_shared = ?", members, true)
	default:
		return nil, validationError("unknown report scope %q", scope.Kind)
	}

	var rows []amountRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, storageError("load expenses for report", err)
	}

	type cell struct {
		month    string
		category uint
	}
	cells := make(map[cell]int64)
	totals := make(map[string]int64)
	for _, r := range rows {
		month := r.Date.UTC().Format(monthKeyLayout)
		cents := models.ToCents(r.Amount)
		cells[cell{month, r.CategoryID}] += cents
		totals[month] += cents
	}

	categories := s.categories.List()
	b := &Breakdown{
		Scope:  scope.Kind,
		Window: len(keys),
		Months: keys,
		Rows:   make([]BreakdownRow, 0, len(keys)*len(categories)),
		Totals: make([]MonthTotal, 0, len(keys)),
	}
	for _, month := range keys {
		for _, c := range categories {
			b.Rows = append(b.Rows, BreakdownRow{
				Month:      month,
				CategoryID: c.ID,
				Category:   c.Name,
				Color:      c.Color,
				Amount:     models.FromCents(cells[cell{month, c.ID}]),
			})
		}
		b.Totals = append(b.Totals, MonthTotal{Month: month, Amount: models.FromCents(totals[month])})
	}
	return b, nil
}

// IncomeVsExpenses 收支对比
func (s *ReportService) IncomeVsExpenses(ctx context.Context, userID uint, window int) ([]MonthlyComparison, error) {
	keys, start, end, err := s.months(window)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var expenses []amountRow
	err = db.Model(&models.Expense{}).
		Select("category_id, amount, date").
		Where("owner_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&expenses).Error
	if err != nil {
		return nil, storageError("load expenses for report", err)
	}

	var incomes []models.MonthlyIncome
	err = db.Where("user_id = ? AND month >= ? AND month < ?", userID, start, end).Find(&incomes).Error
	if err != nil {
		return nil, storageError("load incomes for report", err)
	}

	spent := make(map[string]int64)
	for _, e := range expenses {
		spent[e.Date.UTC().Format(monthKeyLayout)] += models.ToCents(e.Amount)
	}
	earned := make(map[string]int64)
	for _, in := range incomes {
		earned[in.Month.UTC().Format(monthKeyLayout)] += models.ToCents(in.Amount)
	}

	out := make([]MonthlyComparison, 0, len(keys))
	for _, month := range keys {
		out = append(out, MonthlyComparison{
			Month:    month,
			Income:   models.FromCents(earned[month]),
			Expenses: models.FromCents(spent[month]),
			Net:      models.FromCents(earned[month] - spent[month]),
		})
	}
	return out, nil
}

// String human readable scope, used in mail subjects
func (s Scope) String() string {
	return fmt.Sprintf("%s %d", s.Kind, s.ID)
}
