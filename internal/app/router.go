package app

import (
	"quizbot_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// LINE webhook 回调入口
	router.POST("/callback", c.webhook.Callback)

	api := router.Group("/api")
	{
		api.GET("/health", c.health.Check)
	}
}
