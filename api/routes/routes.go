package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/textforge/document-extractor/api/handlers"
	"github.com/textforge/document-extractor/api/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	// 全局中间件
	r.Use(middleware.CORS())

	// API 版本组
	v1 := r.Group("/api/v1")

	// 同步提取
	v1.POST("/extract", h.Extract.ExtractDocument)
	v1.POST("/extract/batch", h.Extract.ExtractBatch)

	// 异步批量任务
	batches := v1.Group("/batches")
	{
		batches.POST("", h.Extract.SubmitBatch)
		batches.GET("/:taskId", h.Extract.GetBatchStatus)
		batches.GET("/:taskId/result", h.Extract.GetBatchResult)
		batches.DELETE("/:taskId", h.Extract.CancelBatch)
	}
}
