package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
)

// ViewportHandler 地図の表示領域の保存・復元
type ViewportHandler struct {
	repo repository.ViewportRepository
}

func NewViewportHandler(repo repository.ViewportRepository) *ViewportHandler {
	return &ViewportHandler{repo: repo}
}

// GetViewport は保存済みの表示領域を返す。未保存ならデフォルト
// GET /api/viewport
func (h *ViewportHandler) GetViewport(c *gin.Context) {
	vp, ok, err := h.repo.Load(c.Request.Context())
	if err != nil {
		// 読み込めなくてもデフォルトで表示を続ける
		log.Warnf("⚠️ 表示領域の読み込みに失敗: %v", err)
	}
	if err != nil || !ok {
		vp = model.DefaultViewport
	}
	c.JSON(http.StatusOK, gin.H{"viewport": vp, "saved": ok && err == nil})
}

// PutViewport PUT /api/viewport
func (h *ViewportHandler) PutViewport(c *gin.Context) {
	var vp model.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := vp.Center().Validate(); err != nil {
		respondError(c, err)
		return
	}
	if vp.LatitudeDelta <= 0 || vp.LongitudeDelta <= 0 {
		respondError(c, fmt.Errorf("%w: 表示領域の幅は正の値で指定してください", model.ErrInvalidCoordinate))
		return
	}

	if err := h.repo.Save(c.Request.Context(), vp); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewport": vp, "saved": vp.IsSet()})
}
