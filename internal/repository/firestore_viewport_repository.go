package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
)

const (
	viewportCollection = "settings"
	viewportDocument   = "viewport"
)

// FirestoreViewportRepository 表示領域を settings/viewport ドキュメントに保存する
type FirestoreViewportRepository struct {
	client *firestore.Client
}

func NewFirestoreViewportRepository(client *firestore.Client) repository.ViewportRepository {
	return &FirestoreViewportRepository{client: client}
}

func (r *FirestoreViewportRepository) doc() *firestore.DocumentRef {
	return r.client.Collection(viewportCollection).Doc(viewportDocument)
}

func (r *FirestoreViewportRepository) Load(ctx context.Context) (model.Viewport, bool, error) {
	snap, err := r.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.Viewport{}, false, nil
		}
		return model.Viewport{}, false, fmt.Errorf("表示領域の取得に失敗しました: %w", err)
	}

	var values map[string]float64
	if err := snap.DataTo(&values); err != nil {
		return model.Viewport{}, false, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	if _, ok := values[keyCenterLatitude]; !ok {
		return model.Viewport{}, false, nil
	}
	vp := viewportFromMap(values)
	return vp, vp.IsSet(), nil
}

func (r *FirestoreViewportRepository) Save(ctx context.Context, vp model.Viewport) error {
	if _, err := r.doc().Set(ctx, viewportToMap(vp)); err != nil {
		return fmt.Errorf("表示領域の保存に失敗しました: %w", err)
	}
	return nil
}
