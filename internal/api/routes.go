package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts all endpoints on the engine.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/session", h.createSession)
		v1.POST("/media/upload", h.uploadMedia)
		v1.GET("/session/:session_id", h.getSession)
		v1.POST("/liedetect", h.runLieDetect)
		v1.POST("/transcript", h.getTranscript)
	}
}
