package router

import (
	"factura/internal/database"
	"factura/internal/handlers"
	"factura/internal/middleware"
	"factura/internal/services"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {
	db := database.GetDB()

	companyService := services.NewCompanyService(db)
	invoiceService := services.NewInvoiceService(db)
	apiKeyService := services.NewAPIKeyService(db, database.GetRedisCache())
	documentService := services.NewDocumentService(invoiceService, companyService)

	auth := middleware.NewAuthMiddleware(apiKeyService)

	companyHandler := handlers.NewCompanyHandler(companyService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService)
	documentHandler := handlers.NewDocumentHandler(documentService)

	// 会话接口（JWT认证）
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 公司路由
		companies := api.Group("/companies", auth.RequireLogin())
		{
			companies.POST("", companyHandler.Create)
			companies.GET("", companyHandler.GetAll)
			companies.GET("/issuer", companyHandler.GetIssuer)
			companies.GET("/:id", companyHandler.GetByID)
			companies.PUT("/:id", companyHandler.Update)
			companies.DELETE("/:id", companyHandler.Delete)
		}

		// 发票路由
		invoices := api.Group("/invoices", auth.RequireLogin())
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.GetAll)
			invoices.GET("/stats", invoiceHandler.GetStats)
			invoices.POST("/duplicate", invoiceHandler.Duplicate)
			invoices.GET("/:id", invoiceHandler.GetByID)
			invoices.PUT("/:id", invoiceHandler.Update)
			invoices.DELETE("/:id", invoiceHandler.Delete)

			// 状态流转
			invoices.POST("/:id/finalize", invoiceHandler.Finalize)
			invoices.POST("/:id/cancel", invoiceHandler.Cancel)
			invoices.POST("/:id/pay", invoiceHandler.Pay)

			// 单据下载
			invoices.GET("/:id/document", documentHandler.RenderInvoice)
		}

		// API密钥路由
		apiKeys := api.Group("/api-keys", auth.RequireLogin())
		{
			apiKeys.POST("", apiKeyHandler.Create)
			apiKeys.GET("", apiKeyHandler.Get)
			apiKeys.DELETE("", apiKeyHandler.Revoke)
		}
	}

	// 程序化接口（API密钥认证）
	ext := router.Group("/api/ext", auth.RequireAPIKey())
	{
		ext.POST("/invoices", invoiceHandler.Create)
		ext.GET("/invoices", invoiceHandler.GetAllExternal)
	}
}

// healthCheck 健康检查
func healthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// ping 连通性检查
func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
