package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestApplyDays(t *testing.T) {
	anchor := date(2025, time.March, 31)

	got, err := TimeOffset{Amount: 7, Unit: OffsetUnitDays, Before: true}.Apply(anchor)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 24), got)

	got, err = TimeOffset{Amount: 3, Unit: OffsetUnitDays}.Apply(anchor)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.April, 3), got)
}

func TestApplyWeeks(t *testing.T) {
	anchor := date(2025, time.June, 15)

	got, err := TimeOffset{Amount: 2, Unit: OffsetUnitWeeks, Before: true}.Apply(anchor)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.June, 1), got)
}

func TestApplyMonthsClampsToShortMonth(t *testing.T) {
	// One month before Mar 31 is Feb 28, not an overflow into March.
	got, err := TimeOffset{Amount: 1, Unit: OffsetUnitMonths, Before: true}.Apply(date(2025, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 28), got)

	// Leap year keeps Feb 29.
	got, err = TimeOffset{Amount: 1, Unit: OffsetUnitMonths, Before: true}.Apply(date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), got)

	// Forward into a short month clamps as well.
	got, err = TimeOffset{Amount: 1, Unit: OffsetUnitMonths}.Apply(date(2025, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 28), got)
}

func TestApplyMonthsAcrossYear(t *testing.T) {
	got, err := TimeOffset{Amount: 3, Unit: OffsetUnitMonths, Before: true}.Apply(date(2025, time.February, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.November, 10), got)
}

func TestApplyRejectsDegenerateOffsets(t *testing.T) {
	anchor := date(2025, time.March, 31)

	_, err := TimeOffset{Amount: 0, Unit: OffsetUnitDays}.Apply(anchor)
	require.Error(t, err)
	var offsetErr *OffsetError
	require.ErrorAs(t, err, &offsetErr)

	_, err = TimeOffset{Amount: -2, Unit: OffsetUnitWeeks}.Apply(anchor)
	assert.Error(t, err)

	_, err = TimeOffset{Amount: 1, Unit: "fortnights"}.Apply(anchor)
	assert.Error(t, err)
}

func TestOffsetBetween(t *testing.T) {
	anchor := date(2025, time.March, 31)

	got := OffsetBetween(anchor, date(2025, time.March, 24))
	assert.Equal(t, TimeOffset{Amount: 1, Unit: OffsetUnitWeeks, Before: true}, got)

	got = OffsetBetween(anchor, date(2025, time.March, 28))
	assert.Equal(t, TimeOffset{Amount: 3, Unit: OffsetUnitDays, Before: true}, got)

	got = OffsetBetween(anchor, date(2025, time.April, 2))
	assert.Equal(t, TimeOffset{Amount: 2, Unit: OffsetUnitDays, Before: false}, got)

	// A zero gap still yields a valid offset.
	got = OffsetBetween(anchor, anchor)
	assert.NoError(t, got.Validate())
}

func TestOffsetRoundTrip(t *testing.T) {
	anchors := []time.Time{
		date(2025, time.March, 31),
		date(2025, time.January, 15),
		date(2024, time.February, 29),
	}
	offsets := []TimeOffset{
		{Amount: 7, Unit: OffsetUnitDays, Before: true},
		{Amount: 10, Unit: OffsetUnitDays, Before: false},
		{Amount: 3, Unit: OffsetUnitWeeks, Before: true},
		{Amount: 1, Unit: OffsetUnitMonths, Before: true},
		{Amount: 2, Unit: OffsetUnitMonths, Before: false},
	}

	for _, anchor := range anchors {
		for _, offset := range offsets {
			concrete, err := offset.Apply(anchor)
			require.NoError(t, err)

			// Re-deriving the offset and re-applying it must recover the
			// anchor, within a day for month-length clamping edge cases.
			derived := OffsetBetween(concrete, anchor)
			recovered, err := derived.Apply(concrete)
			require.NoError(t, err)

			drift := recovered.Sub(anchor)
			if drift < 0 {
				drift = -drift
			}
			assert.LessOrEqual(t, drift, 24*time.Hour,
				"offset %v from anchor %v drifted by %v", offset, anchor, drift)
		}
	}
}

func TestOffsetString(t *testing.T) {
	assert.Equal(t, "7 days before", TimeOffset{Amount: 7, Unit: OffsetUnitDays, Before: true}.String())
	assert.Equal(t, "1 month after", TimeOffset{Amount: 1, Unit: OffsetUnitMonths}.String())
}
