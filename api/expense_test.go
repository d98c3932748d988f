package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"expense-manager/models"
	"expense-manager/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expenseJSON struct {
	ID            uint    `json:"id"`
	OwnerID       uint    `json:"owner_id"`
	Amount        float64 `json:"amount"`
	CategoryID    uint    `json:"category_id"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	BeneficiaryID *uint   `json:"beneficiary_id"`
	IsShared      bool    `json:"is_shared"`
}

type expensePage struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	List     []expenseJSON `json:"list"`
}

func TestExpense_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	food := env.categoryID("Food & Dining")

	id := env.createExpense(alice, gin.H{
		"amount":      42.50,
		"category_id": food,
		"date":        "2024-03-01",
		"description": "groceries",
	})
	require.NotZero(t, id)

	w := env.do("GET", "/api/v1/expenses", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page expensePage
	decode(t, w, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, service.DefaultPageSize, page.PageSize)
	require.Len(t, page.List, 1)
	assert.Equal(t, 42.50, page.List[0].Amount)
	assert.Equal(t, food, page.List[0].CategoryID)
	assert.Equal(t, alice.userID, page.List[0].OwnerID)
	assert.Contains(t, page.List[0].Date, "2024-03-01")

	w = env.do("GET", expensePath(id, ""), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got expenseJSON
	decode(t, w, &got)
	assert.Equal(t, "groceries", got.Description)
}

func TestExpense_CreateRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	carol := env.register("carol@example.com", "")
	food := env.categoryID("Food & Dining")

	tests := []struct {
		name string
		body gin.H
	}{
		{"zero amount", gin.H{"amount": 0, "category_id": food, "date": "2024-03-01"}},
		{"negative amount", gin.H{"amount": -5, "category_id": food, "date": "2024-03-01"}},
		{"unknown category", gin.H{"amount": 10, "category_id": 9999, "date": "2024-03-01"}},
		{"bad date", gin.H{"amount": 10, "category_id": food, "date": "03/01/2024"}},
		{"missing date", gin.H{"amount": 10, "category_id": food}},
		{"beneficiary outside household", gin.H{"amount": 10, "category_id": food, "date": "2024-03-01", "beneficiary_id": carol.userID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/expenses", alice.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := env.do("GET", "/api/v1/expenses", alice.token, nil)
	var page expensePage
	decode(t, w, &page)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.List)
}

func TestExpense_ListFiltersAndPaging(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	food := env.categoryID("Food & Dining")
	transport := env.categoryID("Transportation")

	env.createExpense(alice, gin.H{"amount": 10, "category_id": food, "date": "2024-01-15"})
	env.createExpense(alice, gin.H{"amount": 20, "category_id": transport, "date": "2024-02-10"})
	env.createExpense(alice, gin.H{"amount": 30, "category_id": food, "date": "2024-02-29"})

	w := env.do("GET", "/api/v1/expenses?start_date=2024-02-01&end_date=2024-02-29", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page expensePage
	decode(t, w, &page)
	require.Len(t, page.List, 2)
	assert.Equal(t, 30.0, page.List[0].Amount)
	assert.Equal(t, 20.0, page.List[1].Amount)

	w = env.do("GET", fmt.Sprintf("/api/v1/expenses?category_id=%d", food), alice.token, nil)
	decode(t, w, &page)
	assert.Equal(t, int64(2), page.Total)

	w = env.do("GET", "/api/v1/expenses?page=2&page_size=2", alice.token, nil)
	decode(t, w, &page)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, 10.0, page.List[0].Amount)

	w = env.do("GET", "/api/v1/expenses?start_date=2024-03-01&end_date=2024-02-01", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/expenses?start_date=yesterday", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpense_OwnershipAndDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	bob := env.register("bob@example.com", env.inviteCode(alice))
	food := env.categoryID("Food & Dining")

	id := env.createExpense(alice, gin.H{"amount": 12.30, "category_id": food, "date": "2024-03-05"})

	w := env.do("GET", expensePath(id, ""), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("PUT", expensePath(id, ""), bob.token, gin.H{"amount": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("DELETE", expensePath(id, ""), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("PUT", expensePath(id, ""), alice.token, gin.H{"amount": 15, "description": "lunch"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated expenseJSON
	resp := decode(t, w, &updated)
	assert.Equal(t, "updated", resp.Message)
	assert.Equal(t, 15.0, updated.Amount)
	assert.Equal(t, "lunch", updated.Description)

	w = env.do("DELETE", expensePath(id, ""), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", expensePath(id, ""), alice.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/v1/expenses/abc", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpense_SplitsAndBalance(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	bob := env.register("bob@example.com", env.inviteCode(alice))
	food := env.categoryID("Food & Dining")

	id := env.createExpense(alice, gin.H{
		"amount":         30,
		"category_id":    food,
		"date":           "2024-03-02",
		"beneficiary_id": bob.userID,
	})

	w := env.do("GET", expensePath(id, "/splits"), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var splits []models.Split
	decode(t, w, &splits)
	require.Len(t, splits, 1)
	assert.Equal(t, bob.userID, splits[0].BeneficiaryID)
	assert.Equal(t, 30.0, splits[0].Amount)

	w = env.do("POST", expensePath(id, "/splits"), alice.token, gin.H{"beneficiary_id": alice.userID, "amount": 0.01})
	assert.Equal(t, http.StatusBadRequest, w.Code, "splits may not exceed the expense amount")

	w = env.do("GET", "/api/v1/balance", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var balance service.Balance
	decode(t, w, &balance)
	assert.Equal(t, 30.0, balance.PaidForOthers)
	assert.Equal(t, 30.0, balance.Net)
	require.Len(t, balance.Counterparties, 1)
	assert.Equal(t, bob.userID, balance.Counterparties[0].UserID)
	assert.Equal(t, "bob", balance.Counterparties[0].DisplayName)

	w = env.do("GET", "/api/v1/balance", bob.token, nil)
	decode(t, w, &balance)
	assert.Equal(t, 30.0, balance.OwedToOthers)
	assert.Equal(t, -30.0, balance.Net)

	w = env.do("PUT", expensePath(id, "/splits"), alice.token, gin.H{"beneficiary_ids": []uint{alice.userID, bob.userID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &splits)
	require.Len(t, splits, 2)
	assert.Equal(t, 15.0, splits[0].Amount)
	assert.Equal(t, 15.0, splits[1].Amount)

	w = env.do("GET", expensePath(id, "/splits"), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do("DELETE", expensePath(id, ""), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	require.NoError(t, env.db.Model(&models.Split{}).Where("expense_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestExpense_SharedSplitsAcrossHousehold(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com", "")
	env.register("bob@example.com", env.inviteCode(alice))
	food := env.categoryID("Food & Dining")

	id := env.createExpense(alice, gin.H{"amount": 10.01, "category_id": food, "date": "2024-03-02", "is_shared": true})

	w := env.do("GET", expensePath(id, "/splits"), alice.token, nil)
	var splits []models.Split
	decode(t, w, &splits)
	require.Len(t, splits, 2)
	assert.Equal(t, 5.01, splits[0].Amount)
	assert.Equal(t, 5.00, splits[1].Amount)
}

func TestGetBalance_NoSplits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gormDB, mock := setupMockDB(t)
	h := NewExpenseHandler(nil, service.NewSplitLedger(gormDB))

	r := gin.New()
	r.GET("/balance", setUserIDMiddleware(7), h.GetBalance)

	mock.ExpectQuery("SELECT expenses.owner_id .* FROM `splits` JOIN expenses").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "beneficiary_id", "amount"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/balance", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var balance service.Balance
	decode(t, w, &balance)
	assert.Equal(t, uint(7), balance.UserID)
	assert.Zero(t, balance.Net)
	assert.NotNil(t, balance.Counterparties)
	assert.NoError(t, mock.ExpectationsWereMet())
}
