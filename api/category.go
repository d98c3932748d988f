package api

import (
	"expense-manager/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 消费类别
type CategoryHandler struct {
	categories *service.CategoryRegistry
}

func NewCategoryHandler(categories *service.CategoryRegistry) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List 列出所有类别
// @Summary 获取消费类别列表
// @Description 按名称排序的全部类别及其颜色
// @Tags 消费类别
// @Produce json
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	Success(c, h.categories.List())
}
