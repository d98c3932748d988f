package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"expense-manager/config"
	"expense-manager/database"
	"expense-manager/middleware"
	"expense-manager/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB gorm over sqlmock with the MySQL dialect
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data), string(resp.Data))
	}
	return resp
}

// testEnv a full API over an in-memory SQLite database
type testEnv struct {
	t      *testing.T
	cfg    *config.Config
	db     *gorm.DB
	svc    *service.Services
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "debug"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Report:   config.ReportConfig{MonthWindow: 6},
	}
	config.GlobalConfig = cfg
	t.Cleanup(func() { config.GlobalConfig = nil })
	middleware.InitJWT(cfg)

	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc, err := service.New(context.Background(), db, cfg)
	require.NoError(t, err)

	r := gin.New()
	authH := NewAuthHandler(cfg, svc.Auth)
	expenseH := NewExpenseHandler(svc.Expenses, svc.Splits)
	incomeH := NewIncomeHandler(svc.Incomes)
	reportH := NewReportHandler(svc.Reports, svc.Auth, svc.Mailer)
	exportH := NewExportHandler(svc.Expenses, svc.Reports, svc.Categories)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)
	v1.GET("/categories", NewCategoryHandler(svc.Categories).List)

	authed := v1.Group("", middleware.JWTAuth())
	authed.GET("/auth/profile", authH.GetProfile)
	authed.GET("/household", authH.GetHousehold)
	authed.POST("/expenses", expenseH.Create)
	authed.GET("/expenses", expenseH.List)
	authed.GET("/expenses/:id", expenseH.Get)
	authed.PUT("/expenses/:id", expenseH.Update)
	authed.DELETE("/expenses/:id", expenseH.Delete)
	authed.GET("/expenses/:id/splits", expenseH.ListSplits)
	authed.POST("/expenses/:id/splits", expenseH.CreateSplit)
	authed.PUT("/expenses/:id/splits", expenseH.SplitEvenly)
	authed.GET("/balance", expenseH.GetBalance)
	authed.GET("/incomes", incomeH.History)
	authed.GET("/incomes/:month", incomeH.Get)
	authed.PUT("/incomes/:month", incomeH.Set)
	authed.GET("/reports/monthly", reportH.MonthlyBreakdown)
	authed.POST("/reports/monthly/email", reportH.EmailBreakdown)
	authed.GET("/reports/income-vs-expenses", reportH.IncomeVsExpenses)
	authed.GET("/export/csv", exportH.ExportCSV)
	authed.GET("/export/xlsx", exportH.ExportXLSX)
	authed.GET("/export/breakdown.xlsx", exportH.ExportBreakdownXLSX)

	return &testEnv{t: t, cfg: cfg, db: db, svc: svc, router: r}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(e.t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type session struct {
	token       string
	userID      uint
	householdID uint
}

func (e *testEnv) register(email, inviteCode string) session {
	e.t.Helper()
	w := e.do("POST", "/api/v1/auth/register", "", gin.H{
		"email":       email,
		"password":    "password123",
		"invite_code": inviteCode,
	})
	require.Equal(e.t, 200, w.Code, w.Body.String())
	var data struct {
		Token    string `json:"token"`
		UserInfo struct {
			ID          uint `json:"id"`
			HouseholdID uint `json:"household_id"`
		} `json:"user_info"`
	}
	decode(e.t, w, &data)
	return session{token: data.Token, userID: data.UserInfo.ID, householdID: data.UserInfo.HouseholdID}
}

func (e *testEnv) inviteCode(s session) string {
	e.t.Helper()
	w := e.do("GET", "/api/v1/household", s.token, nil)
	require.Equal(e.t, 200, w.Code, w.Body.String())
	var data HouseholdResponse
	decode(e.t, w, &data)
	return data.Household.InviteCode
}

func (e *testEnv) categoryID(name string) uint {
	e.t.Helper()
	for _, c := range e.svc.Categories.List() {
		if c.Name == name {
			return c.ID
		}
	}
	e.t.Fatalf("category %q not seeded", name)
	return 0
}

func (e *testEnv) createExpense(s session, body gin.H) uint {
	e.t.Helper()
	w := e.do("POST", "/api/v1/expenses", s.token, body)
	require.Equal(e.t, 200, w.Code, w.Body.String())
	var data struct {
		ID uint `json:"id"`
	}
	decode(e.t, w, &data)
	return data.ID
}

func expensePath(id uint, suffix string) string {
	return fmt.Sprintf("/api/v1/expenses/%d%s", id, suffix)
}
