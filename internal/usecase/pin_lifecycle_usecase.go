package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
	"VirtualTourist-App/internal/domain/service"
	"VirtualTourist-App/internal/event"
)

var log = event.Log

// PhotoFetcher 写真取得の開始と取り消し
type PhotoFetcher interface {
	FetchPhotosForPin(ctx context.Context, pinID string) (*service.FetchOutcome, error)
	Cancel(pinID string)
}

type PinLifecycleUseCase interface {
	// BeginPlacement 新しい配置操作を開始する
	BeginPlacement(coord model.Coordinate) (*model.Placement, error)
	// MovePlacement 配置中の座標を更新する
	MovePlacement(placementID string, coord model.Coordinate) (*model.Placement, error)
	// CommitPlacement ピンを作成して写真取得を開始し、保存する
	CommitPlacement(ctx context.Context, placementID string) (*CommitResult, error)
	CancelPlacement(placementID string) (*model.Placement, error)
	GetPlacement(placementID string) (*model.Placement, error)

	Pins(ctx context.Context) ([]*model.Pin, error)
	GetPin(pinID string) (*model.Pin, error)
	RefreshPhotos(ctx context.Context, pinID string) (*service.FetchOutcome, error)
	DeletePin(ctx context.Context, pinID string) error
	DeletePhoto(ctx context.Context, photoID string) error
}

// CommitResult コミットで作成されたピンと写真取得の結果
type CommitResult struct {
	Placement *model.Placement      `json:"placement"`
	Pin       *model.Pin            `json:"pin"`
	Outcome   *service.FetchOutcome `json:"-"`
}

// PhotoFetchError ピンは保存されたが写真の検索に失敗した。PinIDで再試行できる
type PhotoFetchError struct {
	PinID string
	Err   error
}

func (e *PhotoFetchError) Error() string {
	return fmt.Sprintf("ピン %s の写真取得に失敗: %v", e.PinID, e.Err)
}

func (e *PhotoFetchError) Unwrap() error { return e.Err }

type placementEntry struct {
	placement  model.Placement
	committing bool
}

type pinLifecycleUseCaseImpl struct {
	store     repository.PinStore
	fetcher   PhotoFetcher
	publisher event.Publisher
	now       func() time.Time

	mu         sync.Mutex
	placements map[string]*placementEntry
}

func NewPinLifecycleUseCase(store repository.PinStore, fetcher PhotoFetcher, publisher event.Publisher) PinLifecycleUseCase {
	if publisher == nil {
		publisher = event.Discard{}
	}
	return &pinLifecycleUseCaseImpl{
		store:      store,
		fetcher:    fetcher,
		publisher:  publisher,
		now:        time.Now,
		placements: make(map[string]*placementEntry),
	}
}

func (u *pinLifecycleUseCaseImpl) BeginPlacement(coord model.Coordinate) (*model.Placement, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	u.mu.Lock()
	entry := &placementEntry{placement: model.Placement{
		ID:         uuid.NewString(),
		State:      model.PlacementPlacing,
		Coordinate: coord,
		UpdatedAt:  u.now().UTC(),
	}}
	u.placements[entry.placement.ID] = entry
	p := entry.placement
	u.mu.Unlock()

	u.publisher.Publish(event.PinPlacing, event.Data{
		"placement_id": p.ID,
		"latitude":     coord.Latitude,
		"longitude":    coord.Longitude,
	})
	return &p, nil
}

func (u *pinLifecycleUseCaseImpl) MovePlacement(placementID string, coord model.Coordinate) (*model.Placement, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	u.mu.Lock()
	entry, err := u.placingLocked(placementID)
	if err != nil {
		u.mu.Unlock()
		return nil, err
	}
	entry.placement.Coordinate = coord
	entry.placement.UpdatedAt = u.now().UTC()
	p := entry.placement
	u.mu.Unlock()

	u.publisher.Publish(event.PinMoved, event.Data{
		"placement_id": p.ID,
		"latitude":     coord.Latitude,
		"longitude":    coord.Longitude,
	})
	return &p, nil
}

// placingLocked 配置中 (コミット処理中でない) の操作を返す
func (u *pinLifecycleUseCaseImpl) placingLocked(placementID string) (*placementEntry, error) {
	entry, ok := u.placements[placementID]
	if !ok {
		return nil, fmt.Errorf("配置操作 %s: %w", placementID, model.ErrPlacementNotFound)
	}
	if entry.placement.State != model.PlacementPlacing || entry.committing {
		return nil, fmt.Errorf("%s から遷移できません: %w", entry.placement.State, model.ErrInvalidTransition)
	}
	return entry, nil
}

// CommitPlacement 配置を確定する。
// 写真検索に失敗してもピンは保存され、PhotoFetchErrorとしてピンIDと共に返される
func (u *pinLifecycleUseCaseImpl) CommitPlacement(ctx context.Context, placementID string) (*CommitResult, error) {
	u.mu.Lock()
	entry, ok := u.placements[placementID]
	if !ok {
		u.mu.Unlock()
		return nil, fmt.Errorf("配置操作 %s: %w", placementID, model.ErrPlacementNotFound)
	}
	if entry.placement.State == model.PlacementCommitted {
		// 二度目のコミットは何もしない
		p := entry.placement
		u.mu.Unlock()
		pin, err := u.store.GetPin(p.PinID)
		if err != nil {
			return nil, err
		}
		return &CommitResult{Placement: &p, Pin: pin}, nil
	}
	if _, err := u.placingLocked(placementID); err != nil {
		u.mu.Unlock()
		return nil, err
	}
	entry.committing = true
	coord := entry.placement.Coordinate
	u.mu.Unlock()

	pin, err := u.store.CreatePin(coord)
	if err != nil {
		u.mu.Lock()
		entry.committing = false
		u.mu.Unlock()
		return nil, err
	}

	u.mu.Lock()
	entry.committing = false
	entry.placement.State = model.PlacementCommitted
	entry.placement.PinID = pin.ID
	entry.placement.UpdatedAt = u.now().UTC()
	p := entry.placement
	u.mu.Unlock()

	log.Infof("📍 ピンを作成しました: %s (%.5f, %.5f)", pin.ID, coord.Latitude, coord.Longitude)
	u.publisher.Publish(event.PinCommitted, event.Data{"placement_id": p.ID, "pin_id": pin.ID})

	outcome, fetchErr := u.fetcher.FetchPhotosForPin(ctx, pin.ID)

	if err := u.store.Save(ctx); err != nil {
		return nil, err
	}

	current, err := u.store.GetPin(pin.ID)
	if err != nil {
		return nil, err
	}
	result := &CommitResult{Placement: &p, Pin: current, Outcome: outcome}
	if fetchErr != nil {
		return result, &PhotoFetchError{PinID: pin.ID, Err: fetchErr}
	}
	return result, nil
}

func (u *pinLifecycleUseCaseImpl) CancelPlacement(placementID string) (*model.Placement, error) {
	u.mu.Lock()
	entry, err := u.placingLocked(placementID)
	if err != nil {
		u.mu.Unlock()
		return nil, err
	}
	entry.placement.State = model.PlacementCancelled
	entry.placement.UpdatedAt = u.now().UTC()
	p := entry.placement
	u.mu.Unlock()

	u.publisher.Publish(event.PinCancelled, event.Data{"placement_id": p.ID})
	return &p, nil
}

func (u *pinLifecycleUseCaseImpl) GetPlacement(placementID string) (*model.Placement, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	entry, ok := u.placements[placementID]
	if !ok {
		return nil, fmt.Errorf("配置操作 %s: %w", placementID, model.ErrPlacementNotFound)
	}
	p := entry.placement
	return &p, nil
}

// Pins コミット済みの全ピン
func (u *pinLifecycleUseCaseImpl) Pins(ctx context.Context) ([]*model.Pin, error) {
	return u.store.FetchAllPins(ctx)
}

// GetPin 保存前の変更も含む作業セットのピン
func (u *pinLifecycleUseCaseImpl) GetPin(pinID string) (*model.Pin, error) {
	return u.store.GetPin(pinID)
}

// RefreshPhotos 新しいコレクションを取得する (検索失敗後の再試行にも使う)
func (u *pinLifecycleUseCaseImpl) RefreshPhotos(ctx context.Context, pinID string) (*service.FetchOutcome, error) {
	if _, err := u.store.GetPin(pinID); err != nil {
		return nil, err
	}
	return u.fetcher.FetchPhotosForPin(ctx, pinID)
}

// DeletePin ダウンロードを取り消してから、写真ごとピンを削除して保存する
func (u *pinLifecycleUseCaseImpl) DeletePin(ctx context.Context, pinID string) error {
	u.fetcher.Cancel(pinID)

	if err := u.store.DeletePin(ctx, pinID); err != nil {
		return err
	}
	if err := u.store.Save(ctx); err != nil {
		return err
	}

	// 削除されたピンを確定した配置操作も破棄する
	u.mu.Lock()
	for id, entry := range u.placements {
		if entry.placement.PinID == pinID {
			delete(u.placements, id)
		}
	}
	u.mu.Unlock()

	log.Infof("🗑️ ピンを削除しました: %s", pinID)
	u.publisher.Publish(event.PinDeleted, event.Data{"pin_id": pinID})
	return nil
}

func (u *pinLifecycleUseCaseImpl) DeletePhoto(ctx context.Context, photoID string) error {
	photo, err := u.store.GetPhoto(photoID)
	if err != nil {
		return err
	}
	if err := u.store.DeletePhoto(ctx, photoID); err != nil {
		return err
	}
	if err := u.store.Save(ctx); err != nil {
		return err
	}

	u.publisher.Publish(event.PhotoDeleted, event.Data{"pin_id": photo.PinID, "photo_id": photoID})
	return nil
}
