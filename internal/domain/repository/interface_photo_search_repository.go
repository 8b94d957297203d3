package repository

import (
	"context"

	"VirtualTourist-App/internal/domain/model"
)

// PhotoSearchRepository 座標で写真を検索するリモートサービス
type PhotoSearchRepository interface {
	SearchPhotos(ctx context.Context, coord model.Coordinate, page int) (*model.PhotoPage, error)
}

// ImageDownloader 画像のバイト列を取得する
type ImageDownloader interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}
