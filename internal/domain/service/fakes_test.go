package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/event"
	"VirtualTourist-App/internal/infrastructure/database"
	"VirtualTourist-App/internal/infrastructure/imagecache"
	"VirtualTourist-App/internal/repository"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

type fakeSearcher struct {
	mu     sync.Mutex
	pages  []int
	search func(ctx context.Context, coord model.Coordinate, page int) (*model.PhotoPage, error)
}

func (f *fakeSearcher) SearchPhotos(ctx context.Context, coord model.Coordinate, page int) (*model.PhotoPage, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	return f.search(ctx, coord, page)
}

func (f *fakeSearcher) requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

// staticSearcher 全ページで同じ参照を返す
func staticSearcher(totalPages int, urls ...string) *fakeSearcher {
	return &fakeSearcher{search: func(_ context.Context, _ model.Coordinate, page int) (*model.PhotoPage, error) {
		return photoPage(page, totalPages, urls...), nil
	}}
}

func photoPage(page, totalPages int, urls ...string) *model.PhotoPage {
	p := &model.PhotoPage{Page: page, TotalPages: totalPages, PerPage: len(urls), Total: totalPages * len(urls)}
	for i, u := range urls {
		p.Refs = append(p.Refs, model.PhotoRef{RemoteID: fmt.Sprint(i), RemoteURL: u})
	}
	return p
}

type fakeDownloader struct {
	mu       sync.Mutex
	bodies   map[string][]byte
	hung     map[string]bool
	timeout  time.Duration
	gate     chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{bodies: make(map[string][]byte), hung: make(map[string]bool), timeout: 50 * time.Millisecond}
}

// hang 応答しないURLとして登録する。timeout経過でタイムアウトエラーになる
func (f *fakeDownloader) hang(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hung[url] = true
}

func (f *fakeDownloader) set(url string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = body
}

func (f *fakeDownloader) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, &model.NetworkError{Op: "image.download", Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	body, ok := f.bodies[url]
	hung := f.hung[url]
	f.mu.Unlock()
	if hung {
		tctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		<-tctx.Done()
		return nil, &model.NetworkError{Op: "image.download", Err: tctx.Err()}
	}
	if !ok {
		return nil, &model.NetworkError{Op: "image.download", Err: fmt.Errorf("404 Not Found")}
	}
	return body, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, _ event.Data) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	store      *repository.SQLPinStore
	client     *database.SQLClient
	cache      *imagecache.DirCache
	searcher   *fakeSearcher
	downloader *fakeDownloader
	publisher  *recordingPublisher
	manager    *PhotoCacheManager
}

func newFixture(t *testing.T, searcher *fakeSearcher, workers int) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	client, err := database.NewSQLClient(ctx, database.DriverSQLite, filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cache, err := imagecache.NewDirCache(filepath.Join(dir, "photos"))
	require.NoError(t, err)

	f := &fixture{
		store:      repository.NewSQLPinStore(client, cache),
		client:     client,
		cache:      cache,
		searcher:   searcher,
		downloader: newFakeDownloader(),
		publisher:  &recordingPublisher{},
	}
	f.manager = NewPhotoCacheManager(f.store, searcher, f.downloader, cache, f.publisher,
		PhotoCacheManagerOptions{Workers: workers})
	t.Cleanup(f.manager.Close)
	return f
}

func (f *fixture) createPin(t *testing.T, lat, lng float64) *model.Pin {
	t.Helper()
	pin, err := f.store.CreatePin(model.Coordinate{Latitude: lat, Longitude: lng})
	require.NoError(t, err)
	require.NoError(t, f.store.Save(context.Background()))
	return pin
}
