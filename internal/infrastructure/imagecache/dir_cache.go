package imagecache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"github.com/karrick/godirwalk"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/event"
)

var log = event.Log

const (
	fileExt    = ".jpg"
	tempPrefix = ".tmp-"
)

// ErrNotImage ダウンロードしたバイト列が画像ではない
var ErrNotImage = errors.New("画像データではありません")

// DirCache 写真ごとに1ファイルを持つフラットなキャッシュディレクトリ
type DirCache struct {
	dir string
}

// NewDirCache ディレクトリを作成してキャッシュを返す
func NewDirCache(dir string) (*DirCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("CACHE_DIR環境変数が設定されていません")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &model.FileIOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &DirCache{dir: filepath.Clean(dir)}, nil
}

func (c *DirCache) Dir() string {
	return c.dir
}

// FileName 写真IDからファイル名を導出する
func (c *DirCache) FileName(photoID string) string {
	return photoID + fileExt
}

// path ファイル名をディレクトリと結合する。ディレクトリ外を指す名前は拒否
func (c *DirCache) path(name string) (string, error) {
	if name == "" || name == model.CachePathFailed || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", &model.FileIOError{Op: "resolve", Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(c.dir, name), nil
}

// Write 一時ファイルに書き込んでからリネームする。部分的なファイルは見えない
func (c *DirCache) Write(photoID string, data []byte) (string, error) {
	if _, ok := DetectImage(data); !ok {
		return "", &model.FileIOError{Op: "write", Path: photoID, Err: ErrNotImage}
	}
	name := c.FileName(photoID)
	dst, err := c.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(c.dir, tempPrefix+photoID+"-*")
	if err != nil {
		return "", &model.FileIOError{Op: "write", Path: dst, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &model.FileIOError{Op: "write", Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &model.FileIOError{Op: "write", Path: dst, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", &model.FileIOError{Op: "rename", Path: dst, Err: err}
	}

	log.Debugf("💾 画像を保存しました: %s (%s)", name, humanize.Bytes(uint64(len(data))))
	return name, nil
}

func (c *DirCache) Read(name string) ([]byte, error) {
	p, err := c.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &model.FileIOError{Op: "read", Path: p, Err: err}
	}
	return data, nil
}

func (c *DirCache) Exists(name string) bool {
	p, err := c.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Remove ファイルを削除する。存在しない場合は成功扱い
func (c *DirCache) Remove(name string) error {
	p, err := c.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &model.FileIOError{Op: "remove", Path: p, Err: err}
	}
	return nil
}

// Sweep keep に含まれないキャッシュファイルを削除する。書き込み途中の一時ファイルは対象外
func (c *DirCache) Sweep(keep map[string]struct{}) ([]string, error) {
	var removed []string
	var freed uint64

	err := godirwalk.Walk(c.dir, &godirwalk.Options{
		ErrorCallback: func(fileName string, err error) godirwalk.ErrorAction {
			log.Warnf("⚠️ キャッシュ走査中のエラー %s: %v", fileName, err)
			return godirwalk.SkipNode
		},
		Callback: func(fileName string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if fileName == c.dir {
					return nil
				}
				return filepath.SkipDir
			}
			name := filepath.Base(fileName)
			if strings.HasPrefix(name, tempPrefix) {
				return nil
			}
			if _, ok := keep[name]; ok {
				return nil
			}
			if info, err := os.Stat(fileName); err == nil {
				freed += uint64(info.Size())
			}
			if err := os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warnf("⚠️ 孤立ファイルの削除に失敗 %s: %v", fileName, err)
				return nil
			}
			removed = append(removed, name)
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return removed, &model.FileIOError{Op: "sweep", Path: c.dir, Err: err}
	}
	if len(removed) > 0 {
		log.Infof("🧹 孤立ファイルを%d件削除しました (%s)", len(removed), humanize.Bytes(freed))
	}
	return removed, nil
}

// DetectImage バイト列が画像であればMIMEタイプを返す
func DetectImage(data []byte) (string, bool) {
	if !filetype.IsImage(data) {
		return "", false
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}
