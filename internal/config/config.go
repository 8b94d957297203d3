package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/viper"

	"VirtualTourist-App/internal/event"
)

// Config 環境変数から読み込むアプリケーション設定
type Config struct {
	ServerPort            string  `mapstructure:"SERVER_PORT"`
	DatabaseDriver        string  `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN           string  `mapstructure:"DATABASE_DSN"`
	CacheDir              string  `mapstructure:"CACHE_DIR"`
	FlickrAPIKey          string  `mapstructure:"FLICKR_API_KEY"`
	FlickrBaseURL         string  `mapstructure:"FLICKR_BASE_URL"`
	SearchRadiusKm        float64 `mapstructure:"SEARCH_RADIUS_KM"`
	PhotosPerPage         int     `mapstructure:"PHOTOS_PER_PAGE"`
	MaxRandomPage         int     `mapstructure:"MAX_RANDOM_PAGE"`
	DownloadWorkers       int     `mapstructure:"DOWNLOAD_WORKERS"`
	HTTPTimeoutSeconds    int     `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	ViewportStore         string  `mapstructure:"VIEWPORT_STORE"`
	ViewportFile          string  `mapstructure:"VIEWPORT_FILE"`
	RedisAddr             string  `mapstructure:"REDIS_ADDR"`
	RedisPassword         string  `mapstructure:"REDIS_PASSWORD"`
	FirestoreProjectID    string  `mapstructure:"FIRESTORE_PROJECT_ID"`
	LogLevel              string  `mapstructure:"LOG_LEVEL"`
	ImageMemoryTTLSeconds int     `mapstructure:"IMAGE_MEMORY_TTL_SECONDS"`
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	ViewportStoreFile      = "file"
	ViewportStoreRedis     = "redis"
	ViewportStoreFirestore = "firestore"
)

// DefaultDownloadWorkers 物理コア数から決めるダウンロード並列数 (最低2)
func DefaultDownloadWorkers() int {
	if n := cpuid.CPU.PhysicalCores; n > 2 {
		return n
	}
	return 2
}

// Load .envファイルを読み込んだ後、環境変数から設定を構築する。
// envFilesを省略した場合はカレントの.envを任意で読み込み、指定した場合は存在しなければエラー
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			event.Log.Warnf("⚠️ .envファイルの読み込みに失敗: %v", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("envファイルの読み込みに失敗: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "virtualtourist.db")
	v.SetDefault("CACHE_DIR", "cache/photos")
	v.SetDefault("FLICKR_API_KEY", "")
	v.SetDefault("FLICKR_BASE_URL", "https://api.flickr.com/services/rest/")
	v.SetDefault("SEARCH_RADIUS_KM", 10.0)
	v.SetDefault("PHOTOS_PER_PAGE", 21)
	v.SetDefault("MAX_RANDOM_PAGE", 40)
	v.SetDefault("DOWNLOAD_WORKERS", DefaultDownloadWorkers())
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("VIEWPORT_STORE", ViewportStoreFile)
	v.SetDefault("VIEWPORT_FILE", "viewport.json")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("FIRESTORE_PROJECT_ID", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("IMAGE_MEMORY_TTL_SECONDS", 300)
}

// Validate 設定値の整合性を確認する
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("未対応のDATABASE_DRIVERです: %s", c.DatabaseDriver)
	}
	switch c.ViewportStore {
	case ViewportStoreFile, ViewportStoreRedis:
	case ViewportStoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
		}
	default:
		return fmt.Errorf("未対応のVIEWPORT_STOREです: %s", c.ViewportStore)
	}
	if c.PhotosPerPage <= 0 {
		return fmt.Errorf("PHOTOS_PER_PAGEは1以上である必要があります: %d", c.PhotosPerPage)
	}
	if c.MaxRandomPage <= 0 {
		return fmt.Errorf("MAX_RANDOM_PAGEは1以上である必要があります: %d", c.MaxRandomPage)
	}
	if c.DownloadWorkers <= 0 {
		return fmt.Errorf("DOWNLOAD_WORKERSは1以上である必要があります: %d", c.DownloadWorkers)
	}
	return nil
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c Config) ImageMemoryTTL() time.Duration {
	return time.Duration(c.ImageMemoryTTLSeconds) * time.Second
}

// Addr gin の Run に渡すアドレス
func (c Config) Addr() string {
	if c.ServerPort == "" {
		return ":8080"
	}
	if c.ServerPort[0] == ':' {
		return c.ServerPort
	}
	return ":" + c.ServerPort
}
