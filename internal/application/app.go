package application

import (
	"context"
	"fmt"

	"VirtualTourist-App/internal/config"
	"VirtualTourist-App/internal/domain/repository"
	"VirtualTourist-App/internal/domain/service"
	"VirtualTourist-App/internal/event"
	"VirtualTourist-App/internal/handler"
	"VirtualTourist-App/internal/infrastructure/database"
	"VirtualTourist-App/internal/infrastructure/firestore"
	"VirtualTourist-App/internal/infrastructure/flickr"
	"VirtualTourist-App/internal/infrastructure/imagecache"
	"VirtualTourist-App/internal/infrastructure/redisclient"
	repoImpl "VirtualTourist-App/internal/repository"
	"VirtualTourist-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

var log = event.Log

// App 設定から組み立てた依存関係一式
type App struct {
	Config     config.Config
	SQL        *database.SQLClient
	Cache      *imagecache.DirCache
	Store      *repoImpl.SQLPinStore
	Hub        *event.Hub
	Manager    *service.PhotoCacheManager
	PinUseCase usecase.PinLifecycleUseCase
	Viewport   repository.ViewportRepository

	closers []func() error
}

// New 依存関係を組み立て、ストアを読み込む
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.SQL, err = database.NewSQLClient(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.SQL.Close)
	log.Infof("🗄️ データベースに接続しました (%s)", cfg.DatabaseDriver)

	app.Cache, err = imagecache.NewDirCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	app.Store = repoImpl.NewSQLPinStore(app.SQL, app.Cache)
	if err = app.Store.Load(ctx); err != nil {
		return nil, err
	}

	app.Viewport, err = app.newViewportRepository(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.FlickrAPIKey == "" {
		log.Warn("⚠️ FLICKR_API_KEYが設定されていません。写真検索は失敗します")
	}
	client := flickr.NewClient(flickr.Options{
		APIKey:   cfg.FlickrAPIKey,
		BaseURL:  cfg.FlickrBaseURL,
		RadiusKm: cfg.SearchRadiusKm,
		PerPage:  cfg.PhotosPerPage,
		Timeout:  cfg.HTTPTimeout(),
	})

	app.Hub = event.NewHub()
	app.Manager = service.NewPhotoCacheManager(app.Store, client, client, app.Cache, app.Hub, service.PhotoCacheManagerOptions{
		Workers: cfg.DownloadWorkers,
		MaxPage: cfg.MaxRandomPage,
	})
	app.PinUseCase = usecase.NewPinLifecycleUseCase(app.Store, app.Manager, app.Hub)
	return app, nil
}

func (a *App) newViewportRepository(ctx context.Context) (repository.ViewportRepository, error) {
	switch a.Config.ViewportStore {
	case config.ViewportStoreRedis:
		rdb, err := redisclient.NewRedisClient(ctx, a.Config.RedisAddr, a.Config.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return repoImpl.NewRedisViewportRepository(rdb), nil
	case config.ViewportStoreFirestore:
		fc, err := firestore.NewFirestoreClient(ctx, a.Config.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fc.Close)
		return repoImpl.NewFirestoreViewportRepository(fc.GetClient()), nil
	case config.ViewportStoreFile:
		return repoImpl.NewFileViewportRepository(a.Config.ViewportFile), nil
	default:
		return nil, fmt.Errorf("未対応のVIEWPORT_STOREです: %s", a.Config.ViewportStore)
	}
}

// Router HTTP APIのルーター
func (a *App) Router() *gin.Engine {
	return handler.NewRouter(handler.Handlers{
		Pins:       handler.NewPinsHandler(a.PinUseCase),
		Placements: handler.NewPlacementsHandler(a.PinUseCase),
		Images:     handler.NewImagesHandler(a.Store, a.Cache, a.Config.ImageMemoryTTL()),
		Viewport:   handler.NewViewportHandler(a.Viewport),
	})
}

// Close ダウンロードを止めてから接続を閉じる
func (a *App) Close() {
	if a.Manager != nil {
		a.Manager.Close()
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warnf("⚠️ 終了処理でエラー: %v", err)
		}
	}
	a.closers = nil
}
