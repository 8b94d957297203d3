package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/usecase"
)

// PlacementsHandler ピン配置操作のハンドラー
type PlacementsHandler struct {
	pinUseCase usecase.PinLifecycleUseCase
}

func NewPlacementsHandler(pinUseCase usecase.PinLifecycleUseCase) *PlacementsHandler {
	return &PlacementsHandler{pinUseCase: pinUseCase}
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (r coordinateRequest) coordinate() model.Coordinate {
	return model.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// PostPlacement POST /api/placements
func (h *PlacementsHandler) PostPlacement(c *gin.Context) {
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	p, err := h.pinUseCase.BeginPlacement(req.coordinate())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetPlacement GET /api/placements/:id
func (h *PlacementsHandler) GetPlacement(c *gin.Context) {
	p, err := h.pinUseCase.GetPlacement(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PatchPlacement PATCH /api/placements/:id
func (h *PlacementsHandler) PatchPlacement(c *gin.Context) {
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	p, err := h.pinUseCase.MovePlacement(c.Param("id"), req.coordinate())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CommitPlacement は配置を確定してピンを作成する。
// 写真検索に失敗した場合もピンは作成済みで、pin_idで再試行できる
// POST /api/placements/:id/commit
func (h *PlacementsHandler) CommitPlacement(c *gin.Context) {
	result, err := h.pinUseCase.CommitPlacement(c.Request.Context(), c.Param("id"))
	if err != nil {
		var fetchErr *usecase.PhotoFetchError
		if errors.As(err, &fetchErr) && result != nil {
			status, code, message, retryable := errorStatus(fetchErr.Err)
			c.JSON(status, gin.H{
				"error":     code,
				"message":   message,
				"retryable": retryable,
				"pin_id":    fetchErr.PinID,
				"placement": result.Placement,
				"pin":       toPinResponse(result.Pin),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"placement": result.Placement,
		"pin":       toPinResponse(result.Pin),
	})
}

// DeletePlacement は配置をキャンセルする
// DELETE /api/placements/:id
func (h *PlacementsHandler) DeletePlacement(c *gin.Context) {
	p, err := h.pinUseCase.CancelPlacement(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
