package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 配置路由
func SetupRouter(h *Handler, log *zap.Logger, rateLimit string) (*gin.Engine, error) {
	r := gin.New()

	limit, err := RateLimitMiddleware(rateLimit)
	if err != nil {
		return nil, err
	}

	// 注册中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	api := r.Group("/api/v1", limit)
	{
		settlement := api.Group("/settlement")
		{
			settlement.GET("/report", h.GetReport)
			settlement.GET("/stats", h.GetStats)
			settlement.GET("/agents/:sales_code", h.GetAgentSettlement)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.POST("/status", h.UpdateOrderStatus)
		}

		sales := api.Group("/sales")
		{
			sales.PUT("/commission-rate", h.UpdateCommissionRate)
			sales.POST("/payout", h.RecordPayout)
			sales.GET("/:sales_code/payouts", h.ListPayouts)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r, nil
}
