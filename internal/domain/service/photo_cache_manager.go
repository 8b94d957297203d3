package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/klauspost/cpuid/v2"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
	"VirtualTourist-App/internal/event"
)

var log = event.Log

// ErrManagerClosed Close後に写真取得が要求された
var ErrManagerClosed = errors.New("写真キャッシュマネージャは停止済みです")

const finalSaveTimeout = 30 * time.Second

// PhotoCacheManagerOptions 並列数などの設定
type PhotoCacheManagerOptions struct {
	Workers int
	MaxPage int
}

// PhotoCacheManager 写真の検索・レコード作成・画像ダウンロードを調整する
type PhotoCacheManager struct {
	store      repository.PinStore
	selector   *PageSelector
	downloader repository.ImageDownloader
	cache      repository.ImageCache
	publisher  event.Publisher

	sem chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	lastGen     uint64
	generations map[string]uint64
	active      map[string]*downloadGroup
}

type downloadGroup struct {
	cancel context.CancelFunc
}

func NewPhotoCacheManager(
	store repository.PinStore,
	searcher repository.PhotoSearchRepository,
	downloader repository.ImageDownloader,
	cache repository.ImageCache,
	publisher event.Publisher,
	opts PhotoCacheManagerOptions,
) *PhotoCacheManager {
	workers := opts.Workers
	if workers <= 0 {
		workers = max(cpuid.CPU.PhysicalCores, 2)
	}
	if publisher == nil {
		publisher = event.Discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PhotoCacheManager{
		store:       store,
		selector:    NewPageSelector(searcher, opts.MaxPage),
		downloader:  downloader,
		cache:       cache,
		publisher:   publisher,
		sem:         make(chan struct{}, workers),
		baseCtx:     ctx,
		baseCancel:  cancel,
		generations: make(map[string]uint64),
		active:      make(map[string]*downloadGroup),
	}
}

// DownloadSummary 1回の取得で開始したダウンロードの結果
type DownloadSummary struct {
	Cached  int `json:"cached"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"`
}

// FetchOutcome 検索が成功した取得の結果。ダウンロードはバックグラウンドで続く
type FetchOutcome struct {
	PinID  string         `json:"pin_id"`
	Page   int            `json:"page"`
	Photos []*model.Photo `json:"photos"`

	mu      sync.Mutex
	summary DownloadSummary
	err     error
	done    chan struct{}
}

func newFetchOutcome(pinID string, page int, photos []*model.Photo) *FetchOutcome {
	return &FetchOutcome{PinID: pinID, Page: page, Photos: photos, done: make(chan struct{})}
}

// Done 全ダウンロードと最終保存が終わると閉じられる
func (o *FetchOutcome) Done() <-chan struct{} {
	return o.done
}

// Wait ダウンロードの完了を待ち、集計と最終保存のエラーを返す
func (o *FetchOutcome) Wait(ctx context.Context) (DownloadSummary, error) {
	select {
	case <-o.done:
	case <-ctx.Done():
		return o.Summary(), ctx.Err()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary, o.err
}

func (o *FetchOutcome) Summary() DownloadSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary
}

func (o *FetchOutcome) record(f func(*DownloadSummary)) {
	o.mu.Lock()
	f(&o.summary)
	o.mu.Unlock()
}

// FetchPhotosForPin 写真を検索してコレクションを置き換え、画像のダウンロードを開始する。
// 検索に失敗した場合は既存の写真に触れずにエラーを返す
func (m *PhotoCacheManager) FetchPhotosForPin(ctx context.Context, pinID string) (*FetchOutcome, error) {
	pin, err := m.store.GetPin(pinID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	// 世代は全ピン共通の連番。0は取り消し済みを表す
	m.lastGen++
	gen := m.lastGen
	m.generations[pinID] = gen
	m.mu.Unlock()

	// 1. 検索
	page, pageNum, err := m.selector.Select(ctx, pin.Coordinate(), pin.PageCursor)
	if err != nil {
		log.Warnf("⚠️ 写真検索に失敗 (ピン %s): %v", pinID, err)
		return nil, err
	}

	// 2-3. 世代確認とコレクションの置き換え
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if m.generations[pinID] != gen {
		m.mu.Unlock()
		log.Infof("⏭️ 古い検索結果を破棄しました (ピン %s)", pinID)
		return nil, model.ErrFetchSuperseded
	}
	if prev, ok := m.active[pinID]; ok {
		prev.cancel()
		delete(m.active, pinID)
	}
	photos, err := m.store.ReplacePhotos(ctx, pinID, page.Refs)
	if err == nil {
		err = m.store.SetPageCursor(pinID, pageNum)
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx); err != nil {
		return nil, err
	}

	m.publisher.Publish(event.PhotosReplaced, event.Data{
		"pin_id": pinID,
		"page":   pageNum,
		"count":  len(photos),
	})
	log.Infof("🖼️ ピン %s の写真を置き換えました (ページ %d, %s)", pinID, pageNum, english.Plural(len(photos), "photo", "photos"))

	outcome := newFetchOutcome(pinID, pageNum, photos)
	m.startDownloads(pinID, photos, outcome)
	return outcome, nil
}

// ResumePending 保留状態の写真のダウンロードを再開する (起動時など)
func (m *PhotoCacheManager) ResumePending(ctx context.Context) []*FetchOutcome {
	var outcomes []*FetchOutcome
	for _, pin := range m.store.Pins() {
		var pending []*model.Photo
		for _, photo := range pin.Photos {
			if photo.State() == model.PhotoStatePending {
				pending = append(pending, photo)
			}
		}
		if len(pending) == 0 {
			continue
		}

		m.mu.Lock()
		_, busy := m.active[pin.ID]
		closed := m.closed
		m.mu.Unlock()
		if busy || closed {
			continue
		}

		cursor := 0
		if pin.PageCursor != nil {
			cursor = *pin.PageCursor
		}
		outcome := newFetchOutcome(pin.ID, cursor, pending)
		m.startDownloads(pin.ID, pending, outcome)
		outcomes = append(outcomes, outcome)
	}
	if len(outcomes) > 0 {
		log.Infof("🔄 %sのダウンロードを再開しました", english.Plural(len(outcomes), "pin", "pins"))
	}
	return outcomes
}

func (m *PhotoCacheManager) startDownloads(pinID string, photos []*model.Photo, outcome *FetchOutcome) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		outcome.record(func(s *DownloadSummary) { s.Dropped = len(photos) })
		close(outcome.done)
		return
	}
	dctx, cancel := context.WithCancel(m.baseCtx)
	group := &downloadGroup{cancel: cancel}
	m.active[pinID] = group
	m.wg.Add(1)
	m.mu.Unlock()

	var tasks sync.WaitGroup
	for _, photo := range photos {
		tasks.Add(1)
		m.wg.Add(1)
		go func(photo *model.Photo) {
			defer m.wg.Done()
			defer tasks.Done()
			m.downloadPhoto(dctx, photo, outcome)
		}(photo)
	}

	go func() {
		defer m.wg.Done()
		tasks.Wait()

		saveCtx, cancelSave := context.WithTimeout(context.Background(), finalSaveTimeout)
		err := m.store.Save(saveCtx)
		cancelSave()
		if err != nil {
			log.Errorf("❌ ダウンロード結果の保存に失敗 (ピン %s): %v", pinID, err)
		}

		m.mu.Lock()
		if m.active[pinID] == group {
			delete(m.active, pinID)
		}
		m.mu.Unlock()
		cancel()

		outcome.mu.Lock()
		outcome.err = err
		summary := outcome.summary
		outcome.mu.Unlock()
		close(outcome.done)

		log.Infof("✅ ピン %s のダウンロード完了 (成功:%d, 失敗:%d, 破棄:%d)", pinID, summary.Cached, summary.Failed, summary.Dropped)
	}()
}

// downloadPhoto 1枚分のダウンロードタスク。他のタスクとは独立している
func (m *PhotoCacheManager) downloadPhoto(ctx context.Context, photo *model.Photo, outcome *FetchOutcome) {
	dropped := func() { outcome.record(func(s *DownloadSummary) { s.Dropped++ }) }

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		dropped()
		return
	}

	// 作業セットから消えた写真はダウンロードしない
	if _, err := m.store.GetPhoto(photo.ID); err != nil {
		dropped()
		return
	}

	data, err := m.downloader.DownloadImage(ctx, photo.RemoteURL)
	if err != nil {
		if ctx.Err() != nil {
			dropped()
			return
		}
		m.markFailed(photo, err, outcome)
		return
	}

	name, err := m.cache.Write(photo.ID, data)
	if err != nil {
		m.markFailed(photo, err, outcome)
		return
	}

	if err := m.store.SetPhotoCachePath(photo.ID, name); err != nil {
		// 待機中に削除された
		if rmErr := m.cache.Remove(name); rmErr != nil {
			log.Warnf("⚠️ 不要になったファイルの削除に失敗 %s: %v", name, rmErr)
		}
		dropped()
		return
	}

	outcome.record(func(s *DownloadSummary) { s.Cached++ })
	m.publisher.Publish(event.PhotoCached, event.Data{
		"pin_id":   photo.PinID,
		"photo_id": photo.ID,
		"file":     name,
	})
}

func (m *PhotoCacheManager) markFailed(photo *model.Photo, cause error, outcome *FetchOutcome) {
	if err := m.store.SetPhotoCachePath(photo.ID, model.CachePathFailed); err != nil {
		outcome.record(func(s *DownloadSummary) { s.Dropped++ })
		return
	}
	log.Warnf("⚠️ 写真 %s のダウンロードに失敗: %v", photo.ID, cause)
	outcome.record(func(s *DownloadSummary) { s.Failed++ })
	m.publisher.Publish(event.PhotoFailed, event.Data{
		"pin_id":   photo.PinID,
		"photo_id": photo.ID,
		"error":    cause.Error(),
	})
}

// Cancel ピンの進行中のダウンロードを取り消す (削除の前に呼ぶ)
func (m *PhotoCacheManager) Cancel(pinID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if group, ok := m.active[pinID]; ok {
		group.cancel()
		delete(m.active, pinID)
	}
	// 検索中の取得結果も破棄させる
	delete(m.generations, pinID)
}

// Close 全てのダウンロードを取り消し、終了を待つ
func (m *PhotoCacheManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.baseCancel()
	m.mu.Unlock()

	m.wg.Wait()
}

// ReconcileReport キャッシュ整合処理の結果
type ReconcileReport struct {
	RemovedFiles []string `json:"removed_files"`
	ResetPhotos  int      `json:"reset_photos"`
}

// Reconcile どの写真からも参照されないファイルを削除し、
// ファイルが失われた写真を保留状態に戻して保存する
func (m *PhotoCacheManager) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	keep := make(map[string]struct{})

	for _, pin := range m.store.Pins() {
		for _, photo := range pin.Photos {
			// 書き込み中のダウンロードのファイルも残す
			keep[m.cache.FileName(photo.ID)] = struct{}{}
			if !photo.HasCachedFile() {
				continue
			}
			keep[photo.CachePath] = struct{}{}
			if m.cache.Exists(photo.CachePath) {
				continue
			}
			if err := m.store.SetPhotoCachePath(photo.ID, ""); err != nil {
				if errors.Is(err, model.ErrPhotoNotFound) {
					continue
				}
				return nil, err
			}
			report.ResetPhotos++
		}
	}

	removed, err := m.cache.Sweep(keep)
	report.RemovedFiles = removed
	if err != nil {
		return report, fmt.Errorf("キャッシュディレクトリの整理に失敗: %w", err)
	}

	if report.ResetPhotos > 0 {
		if err := m.store.Save(ctx); err != nil {
			return report, err
		}
	}
	log.Infof("🧹 整合処理完了 (孤立ファイル削除 %d, 保留に戻した写真 %d)", len(report.RemovedFiles), report.ResetPhotos)
	return report, nil
}
