package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/service"
	"VirtualTourist-App/internal/event"
	"VirtualTourist-App/internal/infrastructure/database"
	"VirtualTourist-App/internal/infrastructure/imagecache"
	"VirtualTourist-App/internal/repository"
)

// stubFetcher ストアに写真を1件追加するだけの取得処理
type stubFetcher struct {
	store *repository.SQLPinStore

	mu        sync.Mutex
	err       error
	fetched   []string
	cancelled []string
}

func (f *stubFetcher) FetchPhotosForPin(ctx context.Context, pinID string) (*service.FetchOutcome, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, pinID)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, err := f.store.ReplacePhotos(ctx, pinID, []model.PhotoRef{{RemoteURL: "https://img/1.jpg"}}); err != nil {
		return nil, err
	}
	return nil, f.store.SetPageCursor(pinID, 1)
}

func (f *stubFetcher) Cancel(pinID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, pinID)
}

type topicRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *topicRecorder) Publish(topic string, _ event.Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func newTestUseCase(t *testing.T) (PinLifecycleUseCase, *repository.SQLPinStore, *stubFetcher, *topicRecorder) {
	t.Helper()
	dir := t.TempDir()
	client, err := database.NewSQLClient(context.Background(), database.DriverSQLite, filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	cache, err := imagecache.NewDirCache(filepath.Join(dir, "photos"))
	require.NoError(t, err)

	store := repository.NewSQLPinStore(client, cache)
	fetcher := &stubFetcher{store: store}
	rec := &topicRecorder{}
	return NewPinLifecycleUseCase(store, fetcher, rec), store, fetcher, rec
}

func TestPinLifecycle_PlaceMoveCommit(t *testing.T) {
	ctx := context.Background()
	uc, store, fetcher, rec := newTestUseCase(t)

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 10, Longitude: 10})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementPlacing, p.State)

	// 配置中はストアに何も作られない
	assert.Empty(t, store.Pins())

	_, err = uc.MovePlacement(p.ID, model.Coordinate{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)

	result, err := uc.CommitPlacement(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlacementCommitted, result.Placement.State)
	assert.Equal(t, result.Pin.ID, result.Placement.PinID)
	assert.Equal(t, model.Coordinate{Latitude: 51.5, Longitude: -0.12}, result.Pin.Coordinate())
	assert.Equal(t, []string{result.Pin.ID}, fetcher.fetched)

	committed, err := uc.Pins(ctx)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Len(t, committed[0].Photos, 1)

	assert.Equal(t, []string{event.PinPlacing, event.PinMoved, event.PinCommitted}, rec.topics)
}

func TestPinLifecycle_CommitTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	uc, store, fetcher, _ := newTestUseCase(t)

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	first, err := uc.CommitPlacement(ctx, p.ID)
	require.NoError(t, err)
	second, err := uc.CommitPlacement(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Pin.ID, second.Pin.ID)
	assert.Len(t, store.Pins(), 1)
	assert.Len(t, fetcher.fetched, 1)
}

func TestPinLifecycle_CommitSavesPinWhenSearchFails(t *testing.T) {
	ctx := context.Background()
	uc, _, fetcher, _ := newTestUseCase(t)
	fetcher.err = &model.NetworkError{Op: "photos.search", Err: errors.New("offline")}

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	result, err := uc.CommitPlacement(ctx, p.ID)
	var fetchErr *PhotoFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, model.IsRetryable(err))
	require.NotNil(t, result)
	assert.Equal(t, result.Pin.ID, fetchErr.PinID)

	committed, err := uc.Pins(ctx)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Empty(t, committed[0].Photos)

	// 同じピンで再試行できる
	fetcher.err = nil
	_, err = uc.RefreshPhotos(ctx, fetchErr.PinID)
	require.NoError(t, err)
	assert.Equal(t, []string{fetchErr.PinID, fetchErr.PinID}, fetcher.fetched)
}

func TestPinLifecycle_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	uc, store, _, _ := newTestUseCase(t)

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	cancelled, err := uc.CancelPlacement(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlacementCancelled, cancelled.State)

	_, err = uc.CommitPlacement(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = uc.MovePlacement(p.ID, model.Coordinate{Latitude: 2, Longitude: 2})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = uc.CancelPlacement(p.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Empty(t, store.Pins())

	_, err = uc.CommitPlacement(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrPlacementNotFound)

	_, err = uc.BeginPlacement(model.Coordinate{Latitude: 100})
	assert.ErrorIs(t, err, model.ErrInvalidCoordinate)
}

func TestPinLifecycle_DeletePinCancelsAndCascades(t *testing.T) {
	ctx := context.Background()
	uc, store, fetcher, rec := newTestUseCase(t)

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	result, err := uc.CommitPlacement(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, uc.DeletePin(ctx, result.Pin.ID))
	assert.Equal(t, []string{result.Pin.ID}, fetcher.cancelled)
	assert.Empty(t, store.Pins())

	committed, err := uc.Pins(ctx)
	require.NoError(t, err)
	assert.Empty(t, committed)
	assert.Contains(t, rec.topics, event.PinDeleted)

	assert.ErrorIs(t, uc.DeletePin(ctx, result.Pin.ID), model.ErrPinNotFound)

	// 削除したピンの配置操作は残らない
	_, err = uc.GetPlacement(p.ID)
	assert.ErrorIs(t, err, model.ErrPlacementNotFound)
	_, err = uc.CommitPlacement(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrPlacementNotFound)
	assert.Empty(t, store.Pins())
}

func TestPinLifecycle_DeletePhoto(t *testing.T) {
	ctx := context.Background()
	uc, _, _, rec := newTestUseCase(t)

	p, err := uc.BeginPlacement(model.Coordinate{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	result, err := uc.CommitPlacement(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, result.Pin.Photos, 1)

	require.NoError(t, uc.DeletePhoto(ctx, result.Pin.Photos[0].ID))
	pin, err := uc.GetPin(result.Pin.ID)
	require.NoError(t, err)
	assert.Empty(t, pin.Photos)
	assert.Contains(t, rec.topics, event.PhotoDeleted)

	assert.ErrorIs(t, uc.DeletePhoto(ctx, "missing"), model.ErrPhotoNotFound)
}
