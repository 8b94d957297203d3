package model

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Coordinate 緯度経度を表す基本的な型
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate 値を検証してCoordinateを作成する
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate 有限値かつ緯度経度の範囲内であるかチェック
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: 有限値ではありません (%v, %v)", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲で指定してください (%v)", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲で指定してください (%v)", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Point orb.Point に変換 ([lng, lat] の順)
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinateFromPoint orb.Point から Coordinate に変換
func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}
