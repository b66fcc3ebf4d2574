package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flitz/config"
	"flitz/metrics"
	"flitz/websocket"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	websocket.AllowOrigins(cfg.AllowedOrigins...)
	explorer := NewExplorerController(cfg)

	r.GET("/explorer", explorer.StartExplorer)

	fs := r.Group("/fs")
	{
		fs.GET("/list", explorer.List)
		fs.GET("/info", explorer.Info)
		fs.GET("/download", explorer.Download)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
