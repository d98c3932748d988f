package api

import (
	"errors"
	"net/http"
	"strconv"

	"expense-manager/middleware"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 统计报表处理器
type ReportHandler struct {
	reports *service.ReportService
	auth    *service.AuthService
	mailer  *service.ReportMailer
}

// NewReportHandler 创建统计报表处理器
func NewReportHandler(reports *service.ReportService, auth *service.AuthService, mailer *service.ReportMailer) *ReportHandler {
	return &ReportHandler{reports: reports, auth: auth, mailer: mailer}
}

// EmailReportRequest 邮件发送报表请求
type EmailReportRequest struct {
	Scope  string `json:"scope" example:"household"`
	Window int    `json:"window" example:"6"`
}

func parseWindow(c *gin.Context) (int, bool) {
	raw := c.Query("window")
	if raw == "" {
		return 0, true
	}
	window, err := strconv.Atoi(raw)
	if err != nil {
		BadRequest(c, "window must be an integer")
		return 0, false
	}
	return window, true
}

// scopeFor resolves user or household scope for the current user
func (h *ReportHandler) scopeFor(c *gin.Context, name string) (service.Scope, bool) {
	userID := middleware.GetCurrentUserID(c)
	switch name {
	case "", string(service.ScopeUser):
		return service.UserScope(userID), true
	case string(service.ScopeHousehold):
		user, err := h.auth.GetUser(c.Request.Context(), userID)
		if err != nil {
			RespondError(c, err)
			return service.Scope{}, false
		}
		return service.HouseholdScope(user.HouseholdID), true
	default:
		BadRequest(c, "scope must be user or household")
		return service.Scope{}, false
	}
}

// MonthlyBreakdown 按月按类别汇总
// @Summary 月度分类汇总
// @Description 最近 window 个自然月（含当月）每个类别的消费金额，无消费的单元格为 0。scope=household 汇总家庭成员的共享消费
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param window query int false "月份数 1-60" default(6)
// @Param scope query string false "user 或 household" default(user)
// @Success 200 {object} Response{data=service.Breakdown} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/monthly [get]
func (h *ReportHandler) MonthlyBreakdown(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	scope, ok := h.scopeFor(c, c.Query("scope"))
	if !ok {
		return
	}
	b, err := h.reports.MonthlyBreakdown(c.Request.Context(), scope, window)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, b)
}

// IncomeVsExpenses 收支对比
// @Summary 收支对比
// @Description 最近 window 个自然月的月收入与消费
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param window query int false "月份数 1-60" default(6)
// @Success 200 {object} Response{data=[]service.MonthlyComparison} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/income-vs-expenses [get]
func (h *ReportHandler) IncomeVsExpenses(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	out, err := h.reports.IncomeVsExpenses(c.Request.Context(), middleware.GetCurrentUserID(c), window)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, out)
}

// EmailBreakdown 将月度汇总发送到当前用户邮箱
// @Summary 邮件发送月度汇总
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EmailReportRequest false "报表范围"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/v1/reports/monthly/email [post]
func (h *ReportHandler) EmailBreakdown(c *gin.Context) {
	var req EmailReportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, SafeErrorMessage(err, "invalid request"))
			return
		}
	}
	scope, ok := h.scopeFor(c, req.Scope)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := h.auth.GetUser(ctx, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	b, err := h.reports.MonthlyBreakdown(ctx, scope, req.Window)
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.mailer.SendMonthlyBreakdown(user.Email, user.DisplayName, b); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			Error(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		if errors.Is(err, service.ErrValidation) {
			RespondError(c, err)
			return
		}
		InternalError(c, SafeErrorMessage(err, "failed to send email"))
		return
	}
	SuccessWithMessage(c, "sent to "+user.Email, nil)
}
