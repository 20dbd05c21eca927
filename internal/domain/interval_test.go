package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func iv(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestInterval_Overlaps(t *testing.T) {
	base := iv(10, 0, 11, 0)

	assert.True(t, base.Overlaps(iv(10, 30, 11, 30)))
	assert.True(t, base.Overlaps(iv(9, 0, 12, 0)))
	assert.True(t, base.Overlaps(iv(10, 15, 10, 45)))

	// Граничащие интервалы не пересекаются
	assert.False(t, base.Overlaps(iv(11, 0, 12, 0)))
	assert.False(t, base.Overlaps(iv(9, 0, 10, 0)))
	assert.False(t, base.Overlaps(iv(12, 0, 13, 0)))
}

func TestInterval_Contains(t *testing.T) {
	base := iv(9, 0, 18, 0)

	assert.True(t, base.Contains(iv(9, 0, 18, 0)))
	assert.True(t, base.Contains(iv(10, 0, 11, 0)))
	assert.False(t, base.Contains(iv(8, 59, 10, 0)))
	assert.False(t, base.Contains(iv(17, 30, 18, 1)))
}

func TestInterval_Pad(t *testing.T) {
	padded := iv(10, 0, 10, 30).Pad(5 * time.Minute)

	assert.Equal(t, at(9, 55), padded.Start)
	assert.Equal(t, at(10, 35), padded.End)
}

func TestMergeIntervals(t *testing.T) {
	merged := MergeIntervals([]Interval{
		iv(13, 0, 14, 0),
		iv(10, 0, 11, 0),
		iv(10, 30, 11, 30),
		iv(11, 30, 12, 0), // граничащий - склеивается
	})

	require.Len(t, merged, 2)
	assert.Equal(t, iv(10, 0, 12, 0), merged[0])
	assert.Equal(t, iv(13, 0, 14, 0), merged[1])
}

func TestMergeIntervals_DropsInvalid(t *testing.T) {
	merged := MergeIntervals([]Interval{
		iv(10, 0, 10, 0), // пустой
		iv(12, 0, 11, 0), // перевернутый
	})

	assert.Empty(t, merged)
}

func TestSubtractIntervals(t *testing.T) {
	work := iv(9, 0, 18, 0)
	blocked := MergeIntervals([]Interval{
		iv(12, 0, 13, 0),
		iv(15, 30, 16, 0),
	})

	free := SubtractIntervals(work, blocked)

	require.Len(t, free, 3)
	assert.Equal(t, iv(9, 0, 12, 0), free[0])
	assert.Equal(t, iv(13, 0, 15, 30), free[1])
	assert.Equal(t, iv(16, 0, 18, 0), free[2])
}

func TestSubtractIntervals_BlockedOverflowsWindow(t *testing.T) {
	work := iv(9, 0, 12, 0)
	blocked := MergeIntervals([]Interval{
		iv(8, 0, 9, 30),
		iv(11, 30, 13, 0),
	})

	free := SubtractIntervals(work, blocked)

	require.Len(t, free, 1)
	assert.Equal(t, iv(9, 30, 11, 30), free[0])
}

func TestSubtractIntervals_FullyBlocked(t *testing.T) {
	free := SubtractIntervals(iv(10, 0, 11, 0), []Interval{iv(9, 0, 12, 0)})
	assert.Empty(t, free)
}

func TestFilterFitting(t *testing.T) {
	windows := []Interval{
		iv(9, 0, 9, 20),
		iv(10, 0, 10, 30),
		iv(11, 0, 12, 0),
	}

	fitting := FilterFitting(windows, 30*time.Minute)

	require.Len(t, fitting, 2)
	assert.Equal(t, iv(10, 0, 10, 30), fitting[0])
	assert.Equal(t, iv(11, 0, 12, 0), fitting[1])
}

func TestClipStart(t *testing.T) {
	windows := []Interval{
		iv(9, 0, 10, 0),
		iv(10, 30, 12, 0),
		iv(14, 0, 15, 0),
	}

	clipped := ClipStart(windows, at(11, 0))

	require.Len(t, clipped, 2)
	assert.Equal(t, iv(11, 0, 12, 0), clipped[0])
	assert.Equal(t, iv(14, 0, 15, 0), clipped[1])
}
