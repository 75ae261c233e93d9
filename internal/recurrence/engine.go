// Package recurrence computes occurrence instants for recurring posts.
// All results are returned in UTC; inputs are interpreted in the policy's
// local timezone.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
)

// ErrInvalidCadence is returned for cadence values outside daily/weekly/monthly
var ErrInvalidCadence = errors.New("invalid recurrence cadence")

// Next computes the first eligible run instant for a freshly created policy.
//
//   - daily: today at timeOfDay; if that moment has already passed (or is
//     exactly the reference instant), tomorrow.
//   - weekly: the upcoming Monday at timeOfDay (a reference on Monday rolls
//     to the following Monday).
//   - monthly: the first day of the month after the reference month.
func Next(cadence models.Cadence, timeOfDay, timezone string, ref time.Time) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := loadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := ref.In(loc)

	var next time.Time
	switch cadence {
	case models.CadenceDaily:
		next = time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if !next.After(ref) {
			next = next.AddDate(0, 0, 1)
		}
	case models.CadenceWeekly:
		offset := (int(time.Monday) - int(local.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		next = time.Date(local.Year(), local.Month(), local.Day()+offset, hour, minute, 0, 0, loc)
		if !next.After(ref) {
			next = next.AddDate(0, 0, 7)
		}
	case models.CadenceMonthly:
		next = time.Date(local.Year(), local.Month()+1, 1, hour, minute, 0, 0, loc)
		if !next.After(ref) {
			next = next.AddDate(0, 1, 0)
		}
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCadence, cadence)
	}

	return next.UTC(), nil
}

// Advance computes the occurrence after a completed dispatch by advancing one
// cadence unit from the reference instant ("now", not the stale next-run, so
// late runs do not produce a burst of catch-up occurrences). Unlike Next, the
// monthly case keeps the reference day-of-month.
func Advance(cadence models.Cadence, timeOfDay, timezone string, ref time.Time) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := loadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := ref.In(loc)

	var next time.Time
	switch cadence {
	case models.CadenceDaily:
		next = local.AddDate(0, 0, 1)
	case models.CadenceWeekly:
		next = local.AddDate(0, 0, 7)
	case models.CadenceMonthly:
		next = local.AddDate(0, 1, 0)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCadence, cadence)
	}

	next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, loc)
	return next.UTC(), nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" clock value
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid time of day %q: hour out of range", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q: minute out of range", s)
	}
	return hour, minute, nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}
