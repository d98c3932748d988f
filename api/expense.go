package api

import (
	"expense-manager/middleware"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	expenses *service.ExpenseService
	splits   *service.SplitLedger
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(expenses *service.ExpenseService, splits *service.SplitLedger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, splits: splits}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Amount        float64 `json:"amount" example:"42.50"`
	CategoryID    uint    `json:"category_id" binding:"required" example:"3"`
	Date          string  `json:"date" binding:"required" example:"2024-03-01"`
	Description   string  `json:"description" example:"groceries"`
	PaymentMethod string  `json:"payment_method" example:"card"`
	BeneficiaryID *uint   `json:"beneficiary_id" example:"2"`
	IsShared      bool    `json:"is_shared" example:"false"`
}

// UpdateExpenseRequest 更新消费记录请求，未传字段保持不变
type UpdateExpenseRequest struct {
	Amount           *float64 `json:"amount" example:"45.00"`
	CategoryID       *uint    `json:"category_id" example:"3"`
	Date             *string  `json:"date" example:"2024-03-02"`
	Description      *string  `json:"description" example:"groceries and wine"`
	PaymentMethod    *string  `json:"payment_method" example:"cash"`
	BeneficiaryID    *uint    `json:"beneficiary_id" example:"2"`
	ClearBeneficiary bool     `json:"clear_beneficiary" example:"false"`
	IsShared         *bool    `json:"is_shared" example:"true"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page       int   `form:"page" example:"1"`
	PageSize   int   `form:"page_size" example:"20"`
	CategoryID *uint `form:"category_id" example:"3"`
}

// CreateSplitRequest 添加分摊请求
type CreateSplitRequest struct {
	BeneficiaryID uint    `json:"beneficiary_id" binding:"required" example:"2"`
	Amount        float64 `json:"amount" example:"10.00"`
}

// SplitEvenlyRequest 平均分摊请求
type SplitEvenlyRequest struct {
	BeneficiaryIDs []uint `json:"beneficiary_ids" binding:"required,min=1"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 共享消费在家庭成员间平均分摊；替他人支付的消费生成一条全额分摊
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, "date must be YYYY-MM-DD or RFC 3339")
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.ExpenseInput{
		Amount:        req.Amount,
		CategoryID:    req.CategoryID,
		Date:          date,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		BeneficiaryID: req.BeneficiaryID,
		IsShared:      req.IsShared,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "created", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录，按日期倒序，支持分页和筛选
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param category_id query int false "类别筛选"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期，包含当天 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = service.DefaultPageSize
	}
	if req.PageSize > service.MaxPageSize {
		req.PageSize = service.MaxPageSize
	}

	list, total, err := h.expenses.List(c.Request.Context(), middleware.GetCurrentUserID(c), service.ExpenseFilter{
		From:       from,
		To:         to,
		CategoryID: req.CategoryID,
		Limit:      req.PageSize,
		Offset:     (req.Page - 1) * req.PageSize,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 403 {object} Response "无权访问"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	expense, err := h.expenses.Get(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 仅记录所有者可以修改
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "更新内容"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权修改"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	upd := service.ExpenseUpdate{
		Amount:           req.Amount,
		CategoryID:       req.CategoryID,
		Description:      req.Description,
		PaymentMethod:    req.PaymentMethod,
		BeneficiaryID:    req.BeneficiaryID,
		ClearBeneficiary: req.ClearBeneficiary,
		IsShared:         req.IsShared,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		upd.Date = &date
	}

	expense, err := h.expenses.Update(c.Request.Context(), id, middleware.GetCurrentUserID(c), upd)
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "updated", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 同时删除该记录的全部分摊
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response "无权删除"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.expenses.Delete(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "deleted", nil)
}

// ListSplits 获取消费记录的分摊
// @Summary 获取分摊列表
// @Tags 分摊
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=[]models.Split} "获取成功"
// @Failure 403 {object} Response "无权访问"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/splits [get]
func (h *ExpenseHandler) ListSplits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.expenses.Get(ctx, id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	splits, err := h.splits.ListForExpense(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, splits)
}

// CreateSplit 添加一条分摊
// @Summary 添加分摊
// @Description 分摊总额不能超过消费金额
// @Tags 分摊
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body CreateSplitRequest true "分摊信息"
// @Success 200 {object} Response{data=models.Split} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权修改"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/splits [post]
func (h *ExpenseHandler) CreateSplit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}
	split, err := h.splits.CreateSplit(c.Request.Context(), id, middleware.GetCurrentUserID(c), req.BeneficiaryID, req.Amount)
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "created", split)
}

// SplitEvenly 在指定成员间平均分摊
// @Summary 平均分摊
// @Description 替换已有分摊，按分精确平均分配，余数分给靠前的成员
// @Tags 分摊
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body SplitEvenlyRequest true "成员ID列表"
// @Success 200 {object} Response{data=[]models.Split} "分摊成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "无权修改"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/splits [put]
func (h *ExpenseHandler) SplitEvenly(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SplitEvenlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}
	splits, err := h.splits.SplitEvenly(c.Request.Context(), id, middleware.GetCurrentUserID(c), req.BeneficiaryIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, splits)
}

// GetBalance 获取与家庭成员之间的往来余额
// @Summary 往来余额
// @Description 正数表示其他成员欠当前用户
// @Tags 分摊
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.Balance} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/balance [get]
func (h *ExpenseHandler) GetBalance(c *gin.Context) {
	balance, err := h.splits.Balance(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, balance)
}
