package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	day, err := ParseDay("2026-03-15", loc)
	require.NoError(t, err)
	assert.Equal(t, 12, day.Hour())
	assert.Equal(t, "2026-03-15", DayKey(day, loc))

	_, err = ParseDay("", loc)
	assert.Error(t, err)

	_, err = ParseDay("15/03/2026", loc)
	assert.Error(t, err)
}

func TestDayKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2026, 3, 16, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-15", DayKey(late, loc))
	assert.Equal(t, "2026-03", MonthKey(late, loc))
}
