package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/event"
	"VirtualTourist-App/internal/usecase"
)

var log = event.Log

// errorStatus ドメインエラーをHTTPステータスとエラーコードに変換する
func errorStatus(err error) (int, string, string, bool) {
	var (
		netErr    *model.NetworkError
		malformed *model.MalformedResponseError
		readErr   *model.StoreReadError
		writeErr  *model.StoreWriteError
	)
	switch {
	case errors.Is(err, model.ErrPinNotFound):
		return http.StatusNotFound, "pin_not_found", "ピンが見つかりません", false
	case errors.Is(err, model.ErrPhotoNotFound):
		return http.StatusNotFound, "photo_not_found", "写真が見つかりません", false
	case errors.Is(err, model.ErrPlacementNotFound):
		return http.StatusNotFound, "placement_not_found", "配置操作が見つかりません", false
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", err.Error(), false
	case errors.Is(err, model.ErrFetchSuperseded):
		return http.StatusConflict, "fetch_superseded", err.Error(), true
	case errors.Is(err, model.ErrInvalidCoordinate):
		return http.StatusBadRequest, "invalid_coordinate", err.Error(), false
	case errors.As(err, &netErr):
		return http.StatusServiceUnavailable, "network_error", "写真サービスに接続できませんでした", true
	case errors.As(err, &malformed):
		return http.StatusBadGateway, "remote_error", malformed.Error(), true
	case errors.As(err, &readErr), errors.As(err, &writeErr):
		return http.StatusInternalServerError, "store_error", "データの保存または読み込みに失敗しました", false
	default:
		return http.StatusInternalServerError, "internal_error", "内部エラーが発生しました", false
	}
}

func respondError(c *gin.Context, err error) {
	status, code, message, retryable := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{
		"error":     code,
		"message":   message,
		"retryable": retryable,
	}
	var fetchErr *usecase.PhotoFetchError
	if errors.As(err, &fetchErr) {
		body["pin_id"] = fetchErr.PinID
	}
	c.JSON(status, body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "リクエストの形式が正しくありません",
		"details": err.Error(),
	})
}
