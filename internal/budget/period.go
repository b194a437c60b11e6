// Package budget computes period windows, spend rollups, and budget statuses.
package budget

import (
	"fmt"
	"time"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/model"
)

// startOfDay normalizes to 00:00:00.000 local time.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay normalizes to 23:59:59.999 local time.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// CurrentPeriod returns the period window containing ref:
//
//	weekly   Sunday through Saturday of ref's week
//	monthly  first through last calendar day of ref's month
//	yearly   Jan 1 through Dec 31 of ref's year
//
// Start is 00:00:00.000, end is 23:59:59.999 of the local calendar day.
func CurrentPeriod(periodType model.PeriodType, ref time.Time) (time.Time, time.Time, error) {
	switch periodType {
	case model.PeriodWeekly:
		start := startOfDay(ref.AddDate(0, 0, -int(ref.Weekday())))
		return start, endOfDay(start.AddDate(0, 0, 6)), nil

	case model.PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return start, endOfDay(start.AddDate(0, 1, -1)), nil

	case model.PeriodYearly:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
		return start, endOfDay(time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, ref.Location())), nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("period type %q: %w", periodType, common.ErrInvalidOperation)
	}
}

// NextPeriod shifts ref forward one period unit and re-derives the window via
// CurrentPeriod, so the window logic exists in exactly one place.
func NextPeriod(periodType model.PeriodType, ref time.Time) (time.Time, time.Time, error) {
	return CurrentPeriod(periodType, shift(periodType, ref, 1))
}

// PreviousPeriod shifts ref back one period unit and re-derives the window.
func PreviousPeriod(periodType model.PeriodType, ref time.Time) (time.Time, time.Time, error) {
	return CurrentPeriod(periodType, shift(periodType, ref, -1))
}

// shift moves ref by n period units. Monthly and yearly shifts anchor on the
// first of the period before moving, so a ref on Jan 31 lands in February
// instead of AddDate's rollover into March.
func shift(periodType model.PeriodType, ref time.Time, n int) time.Time {
	switch periodType {
	case model.PeriodWeekly:
		return ref.AddDate(0, 0, 7*n)
	case model.PeriodMonthly:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return first.AddDate(0, n, 0)
	case model.PeriodYearly:
		return time.Date(ref.Year()+n, time.January, 1, 0, 0, 0, 0, ref.Location())
	default:
		return ref
	}
}
