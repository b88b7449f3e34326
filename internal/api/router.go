package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rest-tracker/internal/logging"
)

// NewRouter builds the HTTP surface around h under basePath.
func NewRouter(logger *logging.Logger, basePath string, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group(basePath)
	{
		api.POST("/ack", h.Acknowledge)
		api.GET("/status", h.GetStatus)
		api.GET("/rounds", h.GetRounds)
		api.GET("/ws", h.Stream)
	}
	return r
}
