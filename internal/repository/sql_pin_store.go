package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
	"VirtualTourist-App/internal/event"
	"VirtualTourist-App/internal/infrastructure/database"
)

var log = event.Log

// SQLPinStore ピンと写真のユニットオブワーク。
// メモリ上の作業セットへの変更はSaveで1トランザクションとしてDBへ反映される
type SQLPinStore struct {
	client *database.SQLClient
	cache  repository.ImageCache
	now    func() time.Time

	// mu 全ての変更と保存を直列化する
	mu     sync.Mutex
	pins   map[string]*model.Pin
	order  []string
	photos map[string]*model.Photo

	dirtyPins        map[string]struct{}
	dirtyCollections map[string]struct{}
	dirtyPhotos      map[string]struct{}
	deletedPins      map[string]struct{}
	deletedPhotos    map[string]struct{}
}

func NewSQLPinStore(client *database.SQLClient, cache repository.ImageCache) *SQLPinStore {
	s := &SQLPinStore{
		client: client,
		cache:  cache,
		now:    time.Now,
	}
	s.resetWorkingSet()
	return s
}

var _ repository.PinStore = (*SQLPinStore)(nil)

func (s *SQLPinStore) resetWorkingSet() {
	s.pins = make(map[string]*model.Pin)
	s.order = nil
	s.photos = make(map[string]*model.Photo)
	s.clearDirty()
}

func (s *SQLPinStore) clearDirty() {
	s.dirtyPins = make(map[string]struct{})
	s.dirtyCollections = make(map[string]struct{})
	s.dirtyPhotos = make(map[string]struct{})
	s.deletedPins = make(map[string]struct{})
	s.deletedPhotos = make(map[string]struct{})
}

// Load コミット済みの状態で作業セットを置き換える
func (s *SQLPinStore) Load(ctx context.Context) error {
	pins, err := s.FetchAllPins(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetWorkingSet()
	for _, pin := range pins {
		s.pins[pin.ID] = pin
		s.order = append(s.order, pin.ID)
		for _, photo := range pin.Photos {
			s.photos[photo.ID] = photo
		}
	}
	log.Infof("📍 ストアから%d件のピンを読み込みました", len(pins))
	return nil
}

// CreatePin 空のコレクションを持つピンを作業セットに登録する。Saveまで永続化されない
func (s *SQLPinStore) CreatePin(coord model.Coordinate) (*model.Pin, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin := &model.Pin{
		ID:        uuid.NewString(),
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		Photos:    []*model.Photo{},
		CreatedAt: s.now().UTC(),
	}
	s.pins[pin.ID] = pin
	s.order = append(s.order, pin.ID)
	s.dirtyPins[pin.ID] = struct{}{}
	return pin.Clone(), nil
}

// FetchAllPins コミット済みの全ピンを写真付きで読み込む
func (s *SQLPinStore) FetchAllPins(ctx context.Context) ([]*model.Pin, error) {
	db := s.client.DB

	rows, err := db.QueryContext(ctx, `SELECT id, latitude, longitude, page_cursor, created_at FROM pins ORDER BY created_at, id`)
	if err != nil {
		return nil, &model.StoreReadError{Err: fmt.Errorf("ピンの取得失敗: %w", err)}
	}
	defer rows.Close()

	var pins []*model.Pin
	byID := make(map[string]*model.Pin)
	for rows.Next() {
		var (
			pin       model.Pin
			cursor    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&pin.ID, &pin.Latitude, &pin.Longitude, &cursor, &createdAt); err != nil {
			return nil, &model.StoreReadError{Err: fmt.Errorf("ピンデータのスキャン失敗: %w", err)}
		}
		if cursor.Valid {
			c := int(cursor.Int64)
			pin.PageCursor = &c
		}
		pin.CreatedAt = time.Unix(0, createdAt).UTC()
		pin.Photos = []*model.Photo{}
		pins = append(pins, &pin)
		byID[pin.ID] = &pin
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreReadError{Err: err}
	}

	photoRows, err := db.QueryContext(ctx, `SELECT id, pin_id, remote_url, cache_path FROM photos ORDER BY pin_id, position`)
	if err != nil {
		return nil, &model.StoreReadError{Err: fmt.Errorf("写真の取得失敗: %w", err)}
	}
	defer photoRows.Close()

	for photoRows.Next() {
		var photo model.Photo
		if err := photoRows.Scan(&photo.ID, &photo.PinID, &photo.RemoteURL, &photo.CachePath); err != nil {
			return nil, &model.StoreReadError{Err: fmt.Errorf("写真データのスキャン失敗: %w", err)}
		}
		pin, ok := byID[photo.PinID]
		if !ok {
			continue
		}
		photo.Pin = pin
		p := photo
		pin.Photos = append(pin.Photos, &p)
	}
	if err := photoRows.Err(); err != nil {
		return nil, &model.StoreReadError{Err: err}
	}

	return pins, nil
}

// Pins 作業セットの全ピンのコピーを作成順に返す
func (s *SQLPinStore) Pins() []*model.Pin {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*model.Pin, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.pins[id].Clone())
	}
	return result
}

func (s *SQLPinStore) GetPin(pinID string) (*model.Pin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return nil, fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	return pin.Clone(), nil
}

func (s *SQLPinStore) GetPhoto(photoID string) (*model.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	photo, ok := s.photos[photoID]
	if !ok {
		return nil, fmt.Errorf("写真 %s: %w", photoID, model.ErrPhotoNotFound)
	}
	pin := s.pins[photo.PinID].Clone()
	return pin.Photos[pin.PhotoIndex(photoID)], nil
}

func (s *SQLPinStore) UpdateCoordinate(pinID string, coord model.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	pin.SetCoordinate(coord)
	s.dirtyPins[pinID] = struct{}{}
	return nil
}

func (s *SQLPinStore) SetPageCursor(pinID string, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	pin.PageCursor = &page
	s.dirtyPins[pinID] = struct{}{}
	return nil
}

// ReplacePhotos 既存の写真をカスケード削除し、参照ごとに保留状態の写真を1件追加する
func (s *SQLPinStore) ReplacePhotos(ctx context.Context, pinID string, refs []model.PhotoRef) ([]*model.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return nil, fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	s.clearPhotosLocked(pin)

	for _, ref := range refs {
		photo := &model.Photo{
			ID:        uuid.NewString(),
			PinID:     pin.ID,
			RemoteURL: ref.RemoteURL,
			Pin:       pin,
		}
		pin.Photos = append(pin.Photos, photo)
		s.photos[photo.ID] = photo
	}
	s.dirtyCollections[pin.ID] = struct{}{}

	return pin.Clone().Photos, nil
}

func (s *SQLPinStore) ClearPhotos(ctx context.Context, pinID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	s.clearPhotosLocked(pin)
	s.dirtyCollections[pin.ID] = struct{}{}
	return nil
}

// clearPhotosLocked 写真ごとにファイルを削除してからレコードを削除する
func (s *SQLPinStore) clearPhotosLocked(pin *model.Pin) {
	for _, photo := range pin.Photos {
		s.deletePhotoLocked(photo)
	}
	pin.Photos = []*model.Photo{}
}

func (s *SQLPinStore) deletePhotoLocked(photo *model.Photo) {
	if photo.HasCachedFile() && s.cache != nil {
		if err := s.cache.Remove(photo.CachePath); err != nil {
			log.Warnf("⚠️ キャッシュファイルの削除に失敗 (写真 %s): %v", photo.ID, err)
		}
	}
	delete(s.photos, photo.ID)
	delete(s.dirtyPhotos, photo.ID)
	s.deletedPhotos[photo.ID] = struct{}{}
	photo.Pin = nil
}

// SetPhotoCachePath 写真のキャッシュ状態を更新する。写真が削除済みならErrPhotoNotFound
func (s *SQLPinStore) SetPhotoCachePath(photoID, cachePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	photo, ok := s.photos[photoID]
	if !ok {
		return fmt.Errorf("写真 %s: %w", photoID, model.ErrPhotoNotFound)
	}
	photo.CachePath = cachePath
	s.dirtyPhotos[photoID] = struct{}{}
	return nil
}

func (s *SQLPinStore) DeletePhoto(ctx context.Context, photoID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	photo, ok := s.photos[photoID]
	if !ok {
		return fmt.Errorf("写真 %s: %w", photoID, model.ErrPhotoNotFound)
	}
	pin := s.pins[photo.PinID]
	if i := pin.PhotoIndex(photoID); i >= 0 {
		pin.Photos = append(pin.Photos[:i:i], pin.Photos[i+1:]...)
	}
	s.deletePhotoLocked(photo)
	s.dirtyCollections[pin.ID] = struct{}{}
	return nil
}

// DeletePin 所有する写真をファイルごと削除してからピンを削除する
func (s *SQLPinStore) DeletePin(ctx context.Context, pinID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[pinID]
	if !ok {
		return fmt.Errorf("ピン %s: %w", pinID, model.ErrPinNotFound)
	}
	s.clearPhotosLocked(pin)

	delete(s.pins, pinID)
	for i, id := range s.order {
		if id == pinID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.dirtyPins, pinID)
	delete(s.dirtyCollections, pinID)
	s.deletedPins[pinID] = struct{}{}
	return nil
}

// HasChanges 未保存の変更があるか
func (s *SQLPinStore) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChangesLocked()
}

func (s *SQLPinStore) hasChangesLocked() bool {
	return len(s.dirtyPins)+len(s.dirtyCollections)+len(s.dirtyPhotos)+len(s.deletedPins)+len(s.deletedPhotos) > 0
}

// Save 保留中の変更を1トランザクションで反映する。
// 失敗した場合はロールバックし、変更は保持したままStoreWriteErrorを返す
func (s *SQLPinStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasChangesLocked() {
		return nil
	}

	tx, err := s.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return &model.StoreWriteError{Err: fmt.Errorf("トランザクション開始失敗: %w", err)}
	}
	if err := s.applyLocked(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorf("❌ ロールバックに失敗: %v", rbErr)
		}
		return &model.StoreWriteError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &model.StoreWriteError{Err: fmt.Errorf("コミット失敗: %w", err)}
	}

	log.Debugf("💾 保存完了 (ピン更新 %d, 写真更新 %d, ピン削除 %d, 写真削除 %d)",
		len(s.dirtyPins), len(s.dirtyPhotos)+len(s.dirtyCollections), len(s.deletedPins), len(s.deletedPhotos))
	s.clearDirty()
	return nil
}

func (s *SQLPinStore) applyLocked(ctx context.Context, tx *sql.Tx) error {
	rb := s.client.Rebind

	for _, id := range sortedKeys(s.deletedPhotos) {
		if _, err := tx.ExecContext(ctx, rb(`DELETE FROM photos WHERE id = ?`), id); err != nil {
			return fmt.Errorf("写真の削除失敗: %w", err)
		}
	}
	for _, id := range sortedKeys(s.deletedPins) {
		if _, err := tx.ExecContext(ctx, rb(`DELETE FROM photos WHERE pin_id = ?`), id); err != nil {
			return fmt.Errorf("写真の削除失敗: %w", err)
		}
		if _, err := tx.ExecContext(ctx, rb(`DELETE FROM pins WHERE id = ?`), id); err != nil {
			return fmt.Errorf("ピンの削除失敗: %w", err)
		}
	}

	// ピンを先に書き込む (写真の外部キー)
	pinIDs := make(map[string]struct{}, len(s.dirtyPins)+len(s.dirtyCollections))
	for id := range s.dirtyPins {
		pinIDs[id] = struct{}{}
	}
	for id := range s.dirtyCollections {
		pinIDs[id] = struct{}{}
	}
	for _, id := range sortedKeys(pinIDs) {
		pin, ok := s.pins[id]
		if !ok {
			continue
		}
		var cursor sql.NullInt64
		if pin.PageCursor != nil {
			cursor = sql.NullInt64{Int64: int64(*pin.PageCursor), Valid: true}
		}
		_, err := tx.ExecContext(ctx, rb(`INSERT INTO pins (id, latitude, longitude, page_cursor, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude, page_cursor = excluded.page_cursor`),
			pin.ID, pin.Latitude, pin.Longitude, cursor, pin.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("ピンの保存失敗: %w", err)
		}
	}

	photoIDs := make(map[string]struct{}, len(s.dirtyPhotos))
	for id := range s.dirtyPhotos {
		photoIDs[id] = struct{}{}
	}
	for id := range s.dirtyCollections {
		if pin, ok := s.pins[id]; ok {
			for _, photo := range pin.Photos {
				photoIDs[photo.ID] = struct{}{}
			}
		}
	}
	for _, id := range sortedKeys(photoIDs) {
		photo, ok := s.photos[id]
		if !ok {
			continue
		}
		position := s.pins[photo.PinID].PhotoIndex(photo.ID)
		_, err := tx.ExecContext(ctx, rb(`INSERT INTO photos (id, pin_id, remote_url, cache_path, position)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET cache_path = excluded.cache_path, position = excluded.position`),
			photo.ID, photo.PinID, photo.RemoteURL, photo.CachePath, position)
		if err != nil {
			return fmt.Errorf("写真の保存失敗: %w", err)
		}
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
