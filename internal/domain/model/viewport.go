package model

import "github.com/paulmach/orb"

// Viewport 地図の表示領域 (中心と緯度経度の幅)
type Viewport struct {
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	LatitudeDelta   float64 `json:"latitude_delta"`
	LongitudeDelta  float64 `json:"longitude_delta"`
}

// DefaultViewport 保存済みの表示領域がない場合に使う値
var DefaultViewport = Viewport{
	CenterLatitude:  39.5,
	CenterLongitude: -98.35,
	LatitudeDelta:   60,
	LongitudeDelta:  60,
}

// IsSet 中心緯度が0の場合は未保存として扱う
func (v Viewport) IsSet() bool {
	return v.CenterLatitude != 0
}

// Center 中心座標
func (v Viewport) Center() Coordinate {
	return Coordinate{Latitude: v.CenterLatitude, Longitude: v.CenterLongitude}
}

// Bound 表示領域を orb.Bound に変換
func (v Viewport) Bound() orb.Bound {
	halfLat, halfLng := v.LatitudeDelta/2, v.LongitudeDelta/2
	return orb.Bound{
		Min: orb.Point{v.CenterLongitude - halfLng, v.CenterLatitude - halfLat},
		Max: orb.Point{v.CenterLongitude + halfLng, v.CenterLatitude + halfLat},
	}
}

// Contains 座標が表示領域内にあるか
func (v Viewport) Contains(c Coordinate) bool {
	return v.Bound().Contains(c.Point())
}
