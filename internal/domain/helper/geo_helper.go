package helper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"VirtualTourist-App/internal/domain/model"
)

// ParseBBox "min_lng,min_lat,max_lng,max_lat" 形式の文字列を orb.Bound に変換
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: bboxは min_lng,min_lat,max_lng,max_lat の形式で指定してください", model.ErrInvalidCoordinate)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: bboxの値が数値ではありません (%s)", model.ErrInvalidCoordinate, p)
		}
		v[i] = f
	}

	lo, err := model.NewCoordinate(v[1], v[0])
	if err != nil {
		return orb.Bound{}, err
	}
	hi, err := model.NewCoordinate(v[3], v[2])
	if err != nil {
		return orb.Bound{}, err
	}
	if lo.Latitude > hi.Latitude || lo.Longitude > hi.Longitude {
		return orb.Bound{}, fmt.Errorf("%w: bboxの最小値が最大値を超えています", model.ErrInvalidCoordinate)
	}

	return orb.Bound{Min: lo.Point(), Max: hi.Point()}, nil
}

// FilterPinsInBound 境界ボックス内のピンだけを返す
func FilterPinsInBound(pins []*model.Pin, bound orb.Bound) []*model.Pin {
	filtered := make([]*model.Pin, 0, len(pins))
	for _, pin := range pins {
		if bound.Contains(pin.Coordinate().Point()) {
			filtered = append(filtered, pin)
		}
	}
	return filtered
}

// BoundOfPins 全ピンを含む最小の境界ボックス。ピンがなければ ok=false
func BoundOfPins(pins []*model.Pin) (orb.Bound, bool) {
	if len(pins) == 0 {
		return orb.Bound{}, false
	}
	var mp orb.MultiPoint
	for _, pin := range pins {
		mp = append(mp, pin.Coordinate().Point())
	}
	return mp.Bound(), true
}
