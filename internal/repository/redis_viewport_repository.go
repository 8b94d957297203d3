package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
)

const redisViewportKey = "virtualtourist:viewport"

// RedisViewportRepository 表示領域を4フィールドのハッシュとして保存する
type RedisViewportRepository struct {
	client *redis.Client
}

func NewRedisViewportRepository(client *redis.Client) repository.ViewportRepository {
	return &RedisViewportRepository{client: client}
}

func (r *RedisViewportRepository) Load(ctx context.Context) (model.Viewport, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisViewportKey).Result()
	if err != nil {
		return model.Viewport{}, false, fmt.Errorf("表示領域の取得に失敗: %w", err)
	}
	if _, ok := fields[keyCenterLatitude]; !ok {
		return model.Viewport{}, false, nil
	}

	values := make(map[string]float64, len(fields))
	for key, raw := range fields {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Viewport{}, false, fmt.Errorf("表示領域 %s の値が不正です: %w", key, err)
		}
		values[key] = f
	}
	vp := viewportFromMap(values)
	return vp, vp.IsSet(), nil
}

func (r *RedisViewportRepository) Save(ctx context.Context, vp model.Viewport) error {
	values := make(map[string]interface{}, 4)
	for key, value := range viewportToMap(vp) {
		values[key] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	if err := r.client.HSet(ctx, redisViewportKey, values).Err(); err != nil {
		return fmt.Errorf("表示領域の保存に失敗: %w", err)
	}
	return nil
}
