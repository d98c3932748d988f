package api

import (
	"expense-manager/config"
	"expense-manager/middleware"
	"expense-manager/models"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg  *config.Config
	auth *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: auth}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=100" example:"alice@example.com"`
	Password    string `json:"password" binding:"required,min=6,max=72" example:"password123"`
	DisplayName string `json:"display_name" binding:"max=50" example:"Alice"`
	InviteCode  string `json:"invite_code" binding:"max=16" example:"3f2a9c81d07e4b55"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// HouseholdResponse 家庭信息
type HouseholdResponse struct {
	Household models.Household `json:"household"`
	Members   []models.User    `json:"members"`
}

func (h *AuthHandler) issueToken(c *gin.Context, message string, user *models.User) {
	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "failed to issue token")
		return
	}
	SuccessWithMessage(c, message, LoginResponse{Token: token, UserInfo: *user})
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建账号。不带邀请码时新建一个家庭，带邀请码时加入该家庭
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		InviteCode:  req.InviteCode,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	h.issueToken(c, "registered", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.issueToken(c, "logged in", user)
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, user)
}

// GetHousehold 获取当前用户所在家庭及成员
// @Summary 获取家庭信息
// @Description 返回家庭、邀请码和全部成员
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=HouseholdResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/household [get]
func (h *AuthHandler) GetHousehold(c *gin.Context) {
	household, members, err := h.auth.Household(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, HouseholdResponse{Household: *household, Members: members})
}
