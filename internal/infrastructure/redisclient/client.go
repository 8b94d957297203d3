package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 新しいRedisクライアントを作成し、接続を確認する
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR環境変数が設定されていません")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}
	return client, nil
}
