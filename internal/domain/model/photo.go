package model

// CachePathFailed ダウンロードが恒久的に失敗したことを示す予約値
const CachePathFailed = "error"

// PhotoState キャッシュ状態
type PhotoState string

const (
	PhotoStatePending PhotoState = "pending"
	PhotoStateCached  PhotoState = "cached"
	PhotoStateFailed  PhotoState = "failed"
)

// Photo ピンに紐づくキャッシュ済み画像の参照
type Photo struct {
	ID        string `json:"id"`
	PinID     string `json:"pin_id"`
	RemoteURL string `json:"remote_url"`
	// CachePath キャッシュディレクトリ内のファイル名。絶対パスは保存しない
	CachePath string `json:"cache_path,omitempty"`
	Pin       *Pin   `json:"-"`
}

// State CachePathからキャッシュ状態を判定
func (p *Photo) State() PhotoState {
	switch p.CachePath {
	case "":
		return PhotoStatePending
	case CachePathFailed:
		return PhotoStateFailed
	default:
		return PhotoStateCached
	}
}

// HasCachedFile 対応するファイルがキャッシュディレクトリに存在するはずか
func (p *Photo) HasCachedFile() bool {
	return p.State() == PhotoStateCached
}
