package service

import (
	"context"

	"expense-manager/config"

	"gorm.io/gorm"
)

// Services bundles every service the HTTP layer depends on
type Services struct {
	Categories *CategoryRegistry
	Auth       *AuthService
	Expenses   *ExpenseService
	Splits     *SplitLedger
	Reports    *ReportService
	Incomes    *IncomeService
	Mailer     *ReportMailer
}

// New loads the category registry and wires all services onto db
func New(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Services, error) {
	categories, err := LoadCategoryRegistry(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Services{
		Categories: categories,
		Auth:       NewAuthService(db),
		Expenses:   NewExpenseService(db, categories),
		Splits:     NewSplitLedger(db),
		Reports:    NewReportService(db, categories, cfg.Report.MonthWindow),
		Incomes:    NewIncomeService(db),
		Mailer:     NewReportMailer(&cfg.Email),
	}, nil
}
