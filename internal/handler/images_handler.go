package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
	"VirtualTourist-App/internal/infrastructure/imagecache"
)

// PhotoLookup 写真レコードの取得
type PhotoLookup interface {
	GetPhoto(photoID string) (*model.Photo, error)
}

// ImagesHandler キャッシュ済み画像を配信する
type ImagesHandler struct {
	photos PhotoLookup
	cache  repository.ImageCache
	memory *gocache.Cache
}

type cachedImage struct {
	data        []byte
	etag        string
	contentType string
}

func NewImagesHandler(photos PhotoLookup, cache repository.ImageCache, ttl time.Duration) *ImagesHandler {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ImagesHandler{
		photos: photos,
		cache:  cache,
		memory: gocache.New(ttl, 2*ttl),
	}
}

// GetImage は写真のキャッシュ画像を返す。未取得・失敗の場合は404と状態を返す
// GET /api/photos/:id/image
func (h *ImagesHandler) GetImage(c *gin.Context) {
	// レコードを先に確認する (削除済みの写真は配信しない)
	photo, err := h.photos.GetPhoto(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !photo.HasCachedFile() {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "image_not_cached",
			"message": "画像はまだキャッシュされていません",
			"state":   photo.State(),
		})
		return
	}

	img, err := h.load(photo.CachePath)
	if err != nil {
		log.Warnf("⚠️ キャッシュ画像を読み込めません (写真 %s): %v", photo.ID, err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "image_missing",
			"message": "キャッシュファイルが見つかりません",
			"state":   photo.State(),
		})
		return
	}

	c.Header("ETag", img.etag)
	c.Header("Cache-Control", "private, max-age=3600")
	if c.GetHeader("If-None-Match") == img.etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, img.contentType, img.data)
}

func (h *ImagesHandler) load(name string) (*cachedImage, error) {
	if v, ok := h.memory.Get(name); ok {
		return v.(*cachedImage), nil
	}

	data, err := h.cache.Read(name)
	if err != nil {
		return nil, err
	}
	contentType, ok := imagecache.DetectImage(data)
	if !ok {
		contentType = "application/octet-stream"
	}
	img := &cachedImage{
		data:        data,
		etag:        fmt.Sprintf(`"%016x"`, xxh3.Hash(data)),
		contentType: contentType,
	}
	h.memory.SetDefault(name, img)
	return img, nil
}
