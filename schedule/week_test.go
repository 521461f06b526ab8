package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

func TestWeekRangeStartsOnMonday(t *testing.T) {
	loc := warsaw(t)
	// Среда 14 января 2026
	now := time.Date(2026, 1, 14, 15, 30, 0, 0, loc)
	window := WeekRange(now)

	assert.Equal(t, time.Monday, window.Start.Weekday())
	assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, loc), window.Start)
	assert.Equal(t, time.Date(2026, 1, 18, 23, 59, 59, 0, loc), window.End)
	assert.True(t, window.Contains(now))
}

func TestWeekRangeOnMondayAndSunday(t *testing.T) {
	loc := warsaw(t)

	monday := time.Date(2026, 1, 12, 0, 0, 1, 0, loc)
	window := WeekRange(monday)
	assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, loc), window.Start)

	sunday := time.Date(2026, 1, 18, 23, 59, 0, 0, loc)
	window = WeekRange(sunday)
	assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, loc), window.Start)
	assert.True(t, window.Contains(sunday))
}

func TestWeekRangeSundayNightVsMondayMorning(t *testing.T) {
	loc := warsaw(t)
	sundayNight := time.Date(2026, 1, 18, 23, 0, 0, 0, loc)
	mondayMorning := time.Date(2026, 1, 19, 1, 0, 0, 0, loc)

	// Два момента с разницей в пару часов дают разные недели
	assert.NotEqual(t, WeekRange(sundayNight).Start, WeekRange(mondayMorning).Start)
	assert.Equal(t, WeekRange(sundayNight).End.Add(time.Second), WeekRange(mondayMorning).Start)
}

func TestFilterForWeek(t *testing.T) {
	loc := warsaw(t)
	now := time.Date(2026, 1, 14, 12, 0, 0, 0, loc)
	window := WeekRange(now)

	slots := []types.Slot{
		{Title: "inside", Start: time.Date(2026, 1, 13, 9, 0, 0, 0, loc)},
		{Title: "boundary-start", Start: window.Start},
		{Title: "boundary-end", Start: window.End},
		{Title: "last-week", Start: time.Date(2026, 1, 11, 9, 0, 0, 0, loc)},
		{Title: "next-week", Start: time.Date(2026, 1, 19, 9, 0, 0, 0, loc)},
	}

	filtered := FilterForWeek(slots, window)
	require.Len(t, filtered, 3)
	assert.Equal(t, "inside", filtered[0].Title)
	assert.Equal(t, "boundary-start", filtered[1].Title)
	assert.Equal(t, "boundary-end", filtered[2].Title)
}
