package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
)

func mustUTC(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts.UTC()
}

func TestNext_Daily(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "before today's slot",
			ref:  "2024-01-01T08:59:59Z",
			want: "2024-01-01T09:00:00Z",
		},
		{
			name: "exactly at the slot counts as passed",
			ref:  "2024-01-01T09:00:00Z",
			want: "2024-01-02T09:00:00Z",
		},
		{
			name: "after the slot",
			ref:  "2024-01-01T10:30:00Z",
			want: "2024-01-02T09:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(models.CadenceDaily, "09:00", "UTC", mustUTC(t, tt.ref))
			require.NoError(t, err)
			assert.Equal(t, mustUTC(t, tt.want), got)
		})
	}
}

func TestNext_WeeklyAnchorsOnMonday(t *testing.T) {
	// 2024-01-03 is a Wednesday; the upcoming Monday is 2024-01-08.
	got, err := Next(models.CadenceWeekly, "08:00", "UTC", mustUTC(t, "2024-01-03T12:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, mustUTC(t, "2024-01-08T08:00:00Z"), got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestNext_WeeklyFromMondayRollsAWeek(t *testing.T) {
	// A reference already on Monday targets the following Monday.
	got, err := Next(models.CadenceWeekly, "08:00", "UTC", mustUTC(t, "2024-01-08T06:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, mustUTC(t, "2024-01-15T08:00:00Z"), got)
}

func TestNext_MonthlyFirstOfFollowingMonth(t *testing.T) {
	got, err := Next(models.CadenceMonthly, "00:00", "UTC", mustUTC(t, "2024-03-15T10:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, mustUTC(t, "2024-04-01T00:00:00Z"), got)
}

func TestNext_ConvertsLocalSlotToUTC(t *testing.T) {
	// Ref is 2024-06-01T00:00:00Z = 2024-05-31 20:00 EDT, so the local
	// May 31 09:00 slot has passed and the result is June 1 09:00 EDT.
	got, err := Next(models.CadenceDaily, "09:00", "America/New_York", mustUTC(t, "2024-06-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, mustUTC(t, "2024-06-01T13:00:00Z"), got)
}

func TestNext_InvalidCadence(t *testing.T) {
	_, err := Next(models.Cadence("hourly"), "09:00", "UTC", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCadence)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name    string
		cadence models.Cadence
		ref     string
		want    string
	}{
		{
			name:    "daily adds one day at the configured time",
			cadence: models.CadenceDaily,
			ref:     "2024-01-05T15:30:00Z",
			want:    "2024-01-06T10:00:00Z",
		},
		{
			name:    "weekly adds seven days",
			cadence: models.CadenceWeekly,
			ref:     "2024-01-03T15:30:00Z",
			want:    "2024-01-10T10:00:00Z",
		},
		{
			name:    "monthly keeps the day of month",
			cadence: models.CadenceMonthly,
			ref:     "2024-03-15T15:30:00Z",
			want:    "2024-04-15T10:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.cadence, "10:00", "UTC", mustUTC(t, tt.ref))
			require.NoError(t, err)
			assert.Equal(t, mustUTC(t, tt.want), got)
		})
	}
}

func TestAdvance_InvalidCadence(t *testing.T) {
	_, err := Advance(models.Cadence(""), "10:00", "UTC", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCadence)
}

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, err := ParseTimeOfDay("08:45")
	require.NoError(t, err)
	assert.Equal(t, 8, hour)
	assert.Equal(t, 45, minute)

	for _, bad := range []string{"", "8", "25:00", "10:60", "aa:bb", "10:00:00"} {
		_, _, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}
