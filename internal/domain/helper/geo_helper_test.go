package helper

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VirtualTourist-App/internal/domain/model"
)

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("-1, 50, 1, 52")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-1, 50}, b.Min)
	assert.Equal(t, orb.Point{1, 52}, b.Max)

	for _, s := range []string{"", "1,2,3", "a,b,c,d", "1,50,-1,52", "-1,50,1,95"} {
		_, err := ParseBBox(s)
		assert.ErrorIs(t, err, model.ErrInvalidCoordinate, s)
	}
}

func TestFilterPinsInBound(t *testing.T) {
	london := &model.Pin{ID: "london", Latitude: 51.5, Longitude: -0.12}
	tokyo := &model.Pin{ID: "tokyo", Latitude: 35.68, Longitude: 139.76}

	b, err := ParseBBox("-1,50,1,52")
	require.NoError(t, err)
	got := FilterPinsInBound([]*model.Pin{london, tokyo}, b)
	require.Len(t, got, 1)
	assert.Equal(t, "london", got[0].ID)

	bound, ok := BoundOfPins([]*model.Pin{london, tokyo})
	require.True(t, ok)
	assert.Equal(t, orb.Point{-0.12, 35.68}, bound.Min)
	assert.Equal(t, orb.Point{139.76, 51.5}, bound.Max)

	_, ok = BoundOfPins(nil)
	assert.False(t, ok)
}
