package model

import "time"

// Pin ユーザーが地図上に置いたマーカー。写真コレクションを所有する
type Pin struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	PageCursor *int      `json:"page_cursor,omitempty"` // 最後に取得した検索結果ページ
	Photos     []*Photo  `json:"photos"`                // 挿入順 = 表示順
	CreatedAt  time.Time `json:"created_at"`
}

// Coordinate ピンの位置をCoordinateとして返す
func (p *Pin) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// SetCoordinate ピンの位置を更新
func (p *Pin) SetCoordinate(c Coordinate) {
	p.Latitude = c.Latitude
	p.Longitude = c.Longitude
}

// HasSearched 一度でも写真検索が成功しているか
func (p *Pin) HasSearched() bool {
	return p.PageCursor != nil
}

// PhotoIndex 指定IDの写真の位置を返す。見つからない場合は-1
func (p *Pin) PhotoIndex(photoID string) int {
	for i, photo := range p.Photos {
		if photo.ID == photoID {
			return i
		}
	}
	return -1
}

// Clone ピンと写真のディープコピーを作成する (写真のPin参照はコピー先を指す)
func (p *Pin) Clone() *Pin {
	if p == nil {
		return nil
	}
	c := *p
	if p.PageCursor != nil {
		cursor := *p.PageCursor
		c.PageCursor = &cursor
	}
	c.Photos = make([]*Photo, len(p.Photos))
	for i, photo := range p.Photos {
		cp := *photo
		cp.Pin = &c
		c.Photos[i] = &cp
	}
	return &c
}
