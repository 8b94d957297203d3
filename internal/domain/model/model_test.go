package model

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"ロンドン", 51.5, -0.12, false},
		{"境界値", 90, -180, false},
		{"緯度超過", 90.01, 0, true},
		{"経度超過", 0, 180.5, true},
		{"NaN", math.NaN(), 0, true},
		{"Inf", 0, math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoordinate(tt.lat, tt.lng)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoordinate_PointRoundTrip(t *testing.T) {
	c := Coordinate{Latitude: 35.68, Longitude: 139.76}
	p := c.Point()
	assert.Equal(t, 139.76, p.Lon())
	assert.Equal(t, 35.68, p.Lat())
	assert.Equal(t, c, CoordinateFromPoint(p))
}

func TestPin_CloneIsDeep(t *testing.T) {
	cursor := 3
	pin := &Pin{ID: "pin", Latitude: 1, Longitude: 2, PageCursor: &cursor}
	pin.Photos = []*Photo{{ID: "a", PinID: "pin", Pin: pin}, {ID: "b", PinID: "pin", Pin: pin}}

	c := pin.Clone()
	c.Photos[0].CachePath = "a.jpg"
	*c.PageCursor = 9

	assert.Equal(t, "", pin.Photos[0].CachePath)
	assert.Equal(t, 3, *pin.PageCursor)
	assert.Same(t, c, c.Photos[1].Pin)
	assert.Equal(t, 1, c.PhotoIndex("b"))
	assert.Equal(t, -1, c.PhotoIndex("z"))
}

func TestPhoto_State(t *testing.T) {
	assert.Equal(t, PhotoStatePending, (&Photo{}).State())
	assert.Equal(t, PhotoStateFailed, (&Photo{CachePath: CachePathFailed}).State())
	assert.Equal(t, PhotoStateCached, (&Photo{CachePath: "x.jpg"}).State())
	assert.True(t, (&Photo{CachePath: "x.jpg"}).HasCachedFile())
	assert.False(t, (&Photo{CachePath: CachePathFailed}).HasCachedFile())
}

func TestViewport(t *testing.T) {
	assert.False(t, Viewport{}.IsSet())
	assert.True(t, DefaultViewport.IsSet())

	v := Viewport{CenterLatitude: 10, CenterLongitude: 20, LatitudeDelta: 4, LongitudeDelta: 6}
	assert.True(t, v.Contains(Coordinate{Latitude: 11.9, Longitude: 22.9}))
	assert.False(t, v.Contains(Coordinate{Latitude: 12.1, Longitude: 20}))
	assert.Equal(t, Coordinate{Latitude: 10, Longitude: 20}, v.Center())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	var netErr *NetworkError
	wrapped := fmt.Errorf("検索に失敗: %w", &NetworkError{Op: "search", Err: cause})
	require.ErrorAs(t, wrapped, &netErr)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsRetryable(wrapped))

	assert.Equal(t, DefaultRemoteErrorMessage, (&MalformedResponseError{}).Error())
	assert.Equal(t, "Photo not found", (&MalformedResponseError{Message: "Photo not found"}).Error())
	assert.True(t, IsRetryable(&MalformedResponseError{}))

	assert.False(t, IsRetryable(&StoreWriteError{Err: cause}))
	assert.ErrorIs(t, &FileIOError{Op: "write", Path: "a", Err: cause}, cause)
}
