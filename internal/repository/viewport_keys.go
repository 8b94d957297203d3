package repository

import "VirtualTourist-App/internal/domain/model"

// 表示領域の保存キー (全バックエンド共通)
const (
	keyCenterLatitude  = "center_latitude"
	keyCenterLongitude = "center_longitude"
	keyLatitudeDelta   = "latitude_delta"
	keyLongitudeDelta  = "longitude_delta"
)

func viewportToMap(v model.Viewport) map[string]float64 {
	return map[string]float64{
		keyCenterLatitude:  v.CenterLatitude,
		keyCenterLongitude: v.CenterLongitude,
		keyLatitudeDelta:   v.LatitudeDelta,
		keyLongitudeDelta:  v.LongitudeDelta,
	}
}

func viewportFromMap(m map[string]float64) model.Viewport {
	return model.Viewport{
		CenterLatitude:  m[keyCenterLatitude],
		CenterLongitude: m[keyCenterLongitude],
		LatitudeDelta:   m[keyLatitudeDelta],
		LongitudeDelta:  m[keyLongitudeDelta],
	}
}
