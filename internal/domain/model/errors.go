package model

import (
	"errors"
	"fmt"
)

var (
	ErrPinNotFound       = errors.New("ピンが見つかりません")
	ErrPhotoNotFound     = errors.New("写真が見つかりません")
	ErrPlacementNotFound = errors.New("配置操作が見つかりません")
	ErrInvalidTransition = errors.New("不正な状態遷移です")
	ErrInvalidCoordinate = errors.New("座標値が不正です")
	ErrFetchSuperseded   = errors.New("より新しい写真取得が開始されたため結果を破棄しました")
)

// DefaultRemoteErrorMessage リモートからメッセージが得られない場合の汎用メッセージ
const DefaultRemoteErrorMessage = "写真サービスから不正なレスポンスが返されました"

// NetworkError 通信・タイムアウトなどの一時的な失敗 (呼び出し側で再試行可能)
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("通信エラー (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError デコードできない、またはリモートがアプリケーションレベルの失敗を返した
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Message == "" {
		return DefaultRemoteErrorMessage
	}
	return e.Message
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StoreReadError ストアが読み込めない (ユーザー操作なしでは再試行不可)
type StoreReadError struct {
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("ストアの読み込みに失敗: %v", e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError 保存に失敗した。コミットはロールバック済み
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("ストアの保存に失敗: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// FileIOError 画像ファイルの書き込み・削除の失敗
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("ファイル操作に失敗 (%s %s): %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// IsRetryable 写真検索のエラーが再試行の対象か
func IsRetryable(err error) bool {
	var netErr *NetworkError
	var malformed *MalformedResponseError
	return errors.As(err, &netErr) || errors.As(err, &malformed)
}
