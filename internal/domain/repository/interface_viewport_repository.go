package repository

import (
	"context"

	"VirtualTourist-App/internal/domain/model"
)

// ViewportRepository 地図の表示領域をキーバリューとして保存する
type ViewportRepository interface {
	// Load 保存済みでなければ ok=false を返す
	Load(ctx context.Context) (viewport model.Viewport, ok bool, err error)
	Save(ctx context.Context, viewport model.Viewport) error
}
