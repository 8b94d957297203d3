package repository

// ImageCache 写真ごとに1ファイルを持つフラットなキャッシュディレクトリ
type ImageCache interface {
	// FileName 写真IDから決定的に導出されるファイル名
	FileName(photoID string) string
	Write(photoID string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	Exists(name string) bool
	Remove(name string) error
	// Sweep keep に含まれないファイルを削除し、削除したファイル名を返す
	Sweep(keep map[string]struct{}) ([]string, error)
}
