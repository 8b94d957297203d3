package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
)

// FileViewportRepository 表示領域をJSONのキーバリューファイルに保存する
type FileViewportRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileViewportRepository(path string) repository.ViewportRepository {
	return &FileViewportRepository{path: path}
}

func (r *FileViewportRepository) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("json")
	return v
}

func (r *FileViewportRepository) Load(ctx context.Context) (model.Viewport, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.newViper()
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Viewport{}, false, nil
		}
		return model.Viewport{}, false, fmt.Errorf("表示領域ファイルの読み込みに失敗: %w", err)
	}
	if !v.IsSet(keyCenterLatitude) {
		return model.Viewport{}, false, nil
	}

	values := make(map[string]float64, 4)
	for _, key := range []string{keyCenterLatitude, keyCenterLongitude, keyLatitudeDelta, keyLongitudeDelta} {
		values[key] = v.GetFloat64(key)
	}
	vp := viewportFromMap(values)
	return vp, vp.IsSet(), nil
}

func (r *FileViewportRepository) Save(ctx context.Context, vp model.Viewport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &model.FileIOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	v := r.newViper()
	for key, value := range viewportToMap(vp) {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(r.path); err != nil {
		return &model.FileIOError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}
