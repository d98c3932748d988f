package api

import (
	"net/http"
	"testing"
	"time"

	"expense-manager/models"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_MonthlyBreakdown(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	bob := env.register("bob@example.com", env.inviteCode(alice))
	food := env.categoryID("Food & Dining")
	today := time.Now().UTC().Format(dateLayout)
	thisMonth := time.Now().UTC().Format("2006-01")

	env.createExpense(alice, gin.H{"amount": 42.5, "category_id": food, "date": today})
	env.createExpense(bob, gin.H{"amount": 10, "category_id": food, "date": today, "is_shared": true})

	w := env.do("GET", "/api/v1/reports/monthly?window=3", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var b service.Breakdown
	decode(t, w, &b)
	assert.Equal(t, service.ScopeUser, b.Scope)
	require.Len(t, b.Months, 3)
	assert.Equal(t, thisMonth, b.Months[2])
	assert.Len(t, b.Rows, 3*env.svc.Categories.Len())
	for _, r := range b.Rows {
		if r.Month == thisMonth && r.CategoryID == food {
			assert.Equal(t, 42.5, r.Amount)
		} else {
			assert.Zero(t, r.Amount, "%s %s", r.Month, r.Category)
		}
	}
	assert.Equal(t, 42.5, b.Totals[2].Amount)

	// household scope counts shared expenses of every member
	w = env.do("GET", "/api/v1/reports/monthly?window=1&scope=household", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &b)
	assert.Equal(t, service.ScopeHousehold, b.Scope)
	require.Len(t, b.Totals, 1)
	assert.Equal(t, 10.0, b.Totals[0].Amount)

	w = env.do("GET", "/api/v1/reports/monthly", alice.token, nil)
	decode(t, w, &b)
	assert.Equal(t, env.cfg.Report.MonthWindow, b.Window)
}

func TestReport_MonthlyBreakdownRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")

	for _, query := range []string{"window=61", "window=-1", "window=six", "scope=everyone"} {
		w := env.do("GET", "/api/v1/reports/monthly?"+query, alice.token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestReport_EmailDisabled(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")

	w := env.do("POST", "/api/v1/reports/monthly/email", alice.token, gin.H{"scope": "user", "window": 3})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do("POST", "/api/v1/reports/monthly/email", alice.token, gin.H{"window": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport_IncomeVsExpenses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	food := env.categoryID("Food & Dining")
	now := time.Now().UTC()

	env.createExpense(alice, gin.H{"amount": 400.25, "category_id": food, "date": now.Format(dateLayout)})
	w := env.do("PUT", "/api/v1/incomes/"+now.Format("2006-01"), alice.token, gin.H{"amount": 3200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do("GET", "/api/v1/reports/income-vs-expenses?window=2", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []service.MonthlyComparison
	decode(t, w, &out)
	require.Len(t, out, 2)
	assert.Zero(t, out[0].Income)
	assert.Zero(t, out[0].Expenses)
	assert.Equal(t, now.Format("2006-01"), out[1].Month)
	assert.Equal(t, 3200.0, out[1].Income)
	assert.Equal(t, 400.25, out[1].Expenses)
	assert.Equal(t, 2799.75, out[1].Net)
}

func TestIncome_SetGetHistory(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")

	w := env.do("GET", "/api/v1/incomes/2024-03", alice.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PUT", "/api/v1/incomes/2024-03", alice.token, gin.H{"amount": 3000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do("PUT", "/api/v1/incomes/2024-03", alice.token, gin.H{"amount": 3100.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do("PUT", "/api/v1/incomes/2024-04", alice.token, gin.H{"amount": 2900})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/incomes/2024-03", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var income models.MonthlyIncome
	decode(t, w, &income)
	assert.Equal(t, 3100.5, income.Amount)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), income.Month.UTC())

	w = env.do("GET", "/api/v1/incomes", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.MonthlyIncome
	decode(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, 2900.0, history[0].Amount)

	w = env.do("PUT", "/api/v1/incomes/March", alice.token, gin.H{"amount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do("PUT", "/api/v1/incomes/2024-05", alice.token, gin.H{"amount": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
