package api

import (
	"strconv"
	"time"

	"expense-manager/middleware"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

const monthLayout = "2006-01"

// IncomeHandler 月收入处理器
type IncomeHandler struct {
	incomes *service.IncomeService
}

// NewIncomeHandler 创建月收入处理器
func NewIncomeHandler(incomes *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomes: incomes}
}

// SetIncomeRequest 设置月收入请求
type SetIncomeRequest struct {
	Amount float64 `json:"amount" example:"3200.00"`
}

func parseMonth(c *gin.Context) (time.Time, bool) {
	month, err := time.Parse(monthLayout, c.Param("month"))
	if err != nil {
		BadRequest(c, "month must be YYYY-MM")
		return time.Time{}, false
	}
	return month, true
}

// Set 设置某月收入
// @Summary 设置月收入
// @Description 同一月份重复设置会覆盖原值
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param month path string true "月份 (2024-03)"
// @Param request body SetIncomeRequest true "收入金额"
// @Success 200 {object} Response{data=models.MonthlyIncome} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/incomes/{month} [put]
func (h *IncomeHandler) Set(c *gin.Context) {
	month, ok := parseMonth(c)
	if !ok {
		return
	}
	var req SetIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}
	income, err := h.incomes.SetMonthlyIncome(c.Request.Context(), middleware.GetCurrentUserID(c), month, req.Amount)
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "saved", income)
}

// Get 获取某月收入
// @Summary 获取月收入
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param month path string true "月份 (2024-03)"
// @Success 200 {object} Response{data=models.MonthlyIncome} "获取成功"
// @Failure 404 {object} Response "未设置"
// @Router /api/v1/incomes/{month} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	month, ok := parseMonth(c)
	if !ok {
		return
	}
	income, err := h.incomes.GetMonthlyIncome(c.Request.Context(), middleware.GetCurrentUserID(c), month)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, income)
}

// History 收入历史
// @Summary 收入历史
// @Description 最近的月份在前
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param limit query int false "条数" default(12)
// @Success 200 {object} Response{data=[]models.MonthlyIncome} "获取成功"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	list, err := h.incomes.History(c.Request.Context(), middleware.GetCurrentUserID(c), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}
