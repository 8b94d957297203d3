package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLClient sqlite3 / PostgreSQL 共通の接続クライアント
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// NewSQLClient 新しいSQLクライアントを作成し、スキーマを適用する
func NewSQLClient(ctx context.Context, driver, dsn string) (*SQLClient, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN環境変数が設定されていません")
	}
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("未対応のドライバです: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s接続の初期化に失敗: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqliteは単一ライター
		db.SetMaxOpenConns(1)
	}

	// 接続テスト
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%sへの接続に失敗: %w", driver, err)
	}

	client := &SQLClient{DB: db, Driver: driver}
	if err := client.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return client, nil
}

// sqliteDSN 外部キー制約を有効にする
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pins (
		id TEXT PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		page_cursor INTEGER NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		pin_id TEXT NOT NULL REFERENCES pins(id) ON DELETE CASCADE,
		remote_url TEXT NOT NULL,
		cache_path TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_pin_position ON photos (pin_id, position)`,
}

// Migrate スキーマを適用する (何度実行しても同じ結果)
func (c *SQLClient) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマの適用に失敗: %w", err)
		}
	}
	return nil
}

// Rebind ? プレースホルダをドライバに合わせて書き換える
func (c *SQLClient) Rebind(query string) string {
	if c.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close データベース接続を閉じる
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (c *SQLClient) HealthCheck(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("SQLクライアントが初期化されていません")
	}
	return c.DB.PingContext(ctx)
}
