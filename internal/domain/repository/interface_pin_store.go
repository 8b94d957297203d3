package repository

import (
	"context"

	"VirtualTourist-App/internal/domain/model"
)

// PinStore ピンと写真を永続化するストア。変更はSaveまで永続化されない
type PinStore interface {
	Load(ctx context.Context) error
	CreatePin(coord model.Coordinate) (*model.Pin, error)
	FetchAllPins(ctx context.Context) ([]*model.Pin, error)
	Pins() []*model.Pin
	GetPin(pinID string) (*model.Pin, error)
	GetPhoto(photoID string) (*model.Photo, error)
	UpdateCoordinate(pinID string, coord model.Coordinate) error
	SetPageCursor(pinID string, page int) error
	// ReplacePhotos 既存の写真をカスケード削除してから、参照ごとに1件の写真を追加する
	ReplacePhotos(ctx context.Context, pinID string, refs []model.PhotoRef) ([]*model.Photo, error)
	ClearPhotos(ctx context.Context, pinID string) error
	SetPhotoCachePath(photoID, cachePath string) error
	DeletePhoto(ctx context.Context, photoID string) error
	DeletePin(ctx context.Context, pinID string) error
	Save(ctx context.Context) error
}
