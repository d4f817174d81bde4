package geometry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, TimeToOffset(0, 960))
	assert.Equal(t, 480.0, TimeToOffset(720, 960))
	assert.Equal(t, 50.0, TimeToOffset(720, 100))
	assert.InDelta(t, 37.5, TimeToOffset(540, 100), 1e-9)
}

func TestOffsetToTimeSnapsAndClamps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		offset float64
		axis   float64
		want   int
	}{
		{"midnight", 0, 1440, 0},
		{"exact slot", 540, 1440, 540},
		{"rounds down", 547, 1440, 540},
		{"rounds up", 548, 1440, 555},
		{"half rounds up", 547.5, 1440, 555},
		{"last slot", 1430, 1440, 1425},
		{"end of axis", 1440, 1440, 1425},
		{"past the axis", 5000, 1440, 1425},
		{"negative", -30, 1440, 0},
		{"percent axis", 50, 100, 720},
		{"zero axis", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OffsetToTime(tt.offset, tt.axis))
		})
	}
}

func TestRoundTripWithinSnap(t *testing.T) {
	t.Parallel()

	for _, axis := range []float64{24, 37, 100, 480, 960, 1440, 2000} {
		tolerance := TimeToOffset(SnapMinutes, axis) + 1e-9
		for i := 0; i < 500; i++ {
			x := axis * float64(i) / 500
			back := TimeToOffset(float64(OffsetToTime(x, axis)), axis)
			assert.LessOrEqual(t, math.Abs(back-x), tolerance, "axis %.0f offset %.3f", axis, x)
		}
	}
}

func TestSnap(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Snap(7))
	assert.Equal(t, 15, Snap(7.5))
	assert.Equal(t, 1440, Snap(1439))
	assert.Equal(t, 90, Snap(97))
}

func TestAtMinutes(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 10, 18, 13, 47, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC), AtMinutes(day, 555))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), AtMinutes(day, 1440))
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), StartOfDay(day))
}

func TestMinutesOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, MinutesOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 570.5, MinutesOf(time.Date(2026, 1, 1, 9, 30, 30, 0, time.UTC)))
}

func TestBlock(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return time.Date(2026, 10, 18, h, m, 0, 0, time.UTC) }

	top, height, ok := Block(at(6, 0), at(9, 0), day, 1440, 0)
	require.True(t, ok)
	assert.Equal(t, 360.0, top)
	assert.Equal(t, 180.0, height)

	// zero-length event gets the minimum height
	_, height, ok = Block(at(10, 0), at(10, 0), day, 1440, 15)
	require.True(t, ok)
	assert.Equal(t, 15.0, height)

	// clipped to the day on both sides
	top, height, ok = Block(at(22, 0), at(22, 0).Add(5*time.Hour), day, 1440, 0)
	require.True(t, ok)
	assert.Equal(t, 1320.0, top)
	assert.Equal(t, 120.0, height)

	top, height, ok = Block(at(0, 0).Add(-2*time.Hour), at(1, 0), day, 1440, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, top)
	assert.Equal(t, 60.0, height)

	_, _, ok = Block(at(0, 0).AddDate(0, 0, 1), at(0, 0).AddDate(0, 0, 1).Add(time.Hour), day, 1440, 0)
	assert.False(t, ok, "next day")
	_, _, ok = Block(at(0, 0).Add(-time.Hour), at(0, 0), day, 1440, 0)
	assert.False(t, ok, "ends exactly at midnight")
}
