package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handlers ルーターに登録するハンドラー一式
type Handlers struct {
	Pins       *PinsHandler
	Placements *PlacementsHandler
	Images     *ImagesHandler
	Viewport   *ViewportHandler
}

// NewRouter APIのルーティングを設定する
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "VirtualTourist-App"})
	})

	api.GET("/pins", h.Pins.GetPins)
	api.GET("/pins/:id", h.Pins.GetPin)
	api.DELETE("/pins/:id", h.Pins.DeletePin)
	api.POST("/pins/:id/photos/refresh", h.Pins.RefreshPhotos)
	api.DELETE("/photos/:id", h.Pins.DeletePhoto)
	api.GET("/photos/:id/image", h.Images.GetImage)

	api.POST("/placements", h.Placements.PostPlacement)
	api.GET("/placements/:id", h.Placements.GetPlacement)
	api.PATCH("/placements/:id", h.Placements.PatchPlacement)
	api.POST("/placements/:id/commit", h.Placements.CommitPlacement)
	api.DELETE("/placements/:id", h.Placements.DeletePlacement)

	api.GET("/viewport", h.Viewport.GetViewport)
	api.PUT("/viewport", h.Viewport.PutViewport)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("🌐 %s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
