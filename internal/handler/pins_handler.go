package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"VirtualTourist-App/internal/domain/helper"
	"VirtualTourist-App/internal/usecase"
)

// PinsHandler ピンと写真コレクションのハンドラー
type PinsHandler struct {
	pinUseCase usecase.PinLifecycleUseCase
}

func NewPinsHandler(pinUseCase usecase.PinLifecycleUseCase) *PinsHandler {
	return &PinsHandler{pinUseCase: pinUseCase}
}

// GetPins はコミット済みのピン一覧を返す
// GET /api/pins?bbox=min_lng,min_lat,max_lng,max_lat
func (h *PinsHandler) GetPins(c *gin.Context) {
	pins, err := h.pinUseCase.Pins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if bbox := c.Query("bbox"); bbox != "" {
		bound, err := helper.ParseBBox(bbox)
		if err != nil {
			respondError(c, err)
			return
		}
		pins = helper.FilterPinsInBound(pins, bound)
	}

	c.JSON(http.StatusOK, gin.H{"pins": toPinResponses(pins)})
}

// GetPin は写真の状態を含むピンを返す
// GET /api/pins/:id
func (h *PinsHandler) GetPin(c *gin.Context) {
	pin, err := h.pinUseCase.GetPin(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPinResponse(pin))
}

// DeletePin DELETE /api/pins/:id
func (h *PinsHandler) DeletePin(c *gin.Context) {
	if err := h.pinUseCase.DeletePin(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RefreshPhotos は新しい写真コレクションを取得する。ダウンロードはバックグラウンドで続く
// POST /api/pins/:id/photos/refresh
func (h *PinsHandler) RefreshPhotos(c *gin.Context) {
	pinID := c.Param("id")
	outcome, err := h.pinUseCase.RefreshPhotos(c.Request.Context(), pinID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"pin_id": pinID,
		"page":   outcome.Page,
		"photos": toPhotoResponses(outcome.Photos),
	})
}

// DeletePhoto DELETE /api/photos/:id
func (h *PinsHandler) DeletePhoto(c *gin.Context) {
	if err := h.pinUseCase.DeletePhoto(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
