package router

import (
	"time"

	"expense-manager/api"
	"expense-manager/config"
	_ "expense-manager/docs"
	"expense-manager/middleware"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *service.Services) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"profile": cfg.Profile,
		})
	})

	authHandler := api.NewAuthHandler(cfg, svc.Auth)
	categoryHandler := api.NewCategoryHandler(svc.Categories)
	expenseHandler := api.NewExpenseHandler(svc.Expenses, svc.Splits)
	incomeHandler := api.NewIncomeHandler(svc.Incomes)
	reportHandler := api.NewReportHandler(svc.Reports, svc.Auth, svc.Mailer)
	exportHandler := api.NewExportHandler(svc.Expenses, svc.Reports, svc.Categories)

	v1 := r.Group("/api/v1")
	{
		// 认证（无需登录）
		auth := v1.Group("/auth")
		auth.Use(middleware.LoginRateLimit(10, time.Minute))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		v1.GET("/categories", categoryHandler.List)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.GET("/household", authHandler.GetHousehold)

			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
				expenses.GET("/:id/splits", expenseHandler.ListSplits)
				expenses.POST("/:id/splits", expenseHandler.CreateSplit)
				expenses.PUT("/:id/splits", expenseHandler.SplitEvenly)
			}
			authorized.GET("/balance", expenseHandler.GetBalance)

			incomes := authorized.Group("/incomes")
			{
				incomes.GET("", incomeHandler.History)
				incomes.GET("/:month", incomeHandler.Get)
				incomes.PUT("/:month", incomeHandler.Set)
			}

			reports := authorized.Group("/reports")
			{
				reports.GET("/monthly", reportHandler.MonthlyBreakdown)
				reports.POST("/monthly/email", reportHandler.EmailBreakdown)
				reports.GET("/income-vs-expenses", reportHandler.IncomeVsExpenses)
			}

			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/xlsx", exportHandler.ExportXLSX)
				export.GET("/breakdown.xlsx", exportHandler.ExportBreakdownXLSX)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
