package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 30, 0, 0, time.Local)
}

func TestCurrentPeriod(t *testing.T) {
	tests := []struct {
		name       string
		periodType model.PeriodType
		ref        time.Time
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{
			name:       "monthly mid-month",
			periodType: model.PeriodMonthly,
			ref:        date(2025, time.December, 15),
			wantStart:  time.Date(2025, time.December, 1, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2025, time.December, 31, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
		{
			name:       "monthly february leap year",
			periodType: model.PeriodMonthly,
			ref:        date(2024, time.February, 10),
			wantStart:  time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2024, time.February, 29, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
		{
			// 2025-03-12 is a Wednesday; the week runs Sunday the 9th
			// through Saturday the 15th.
			name:       "weekly starts on sunday",
			periodType: model.PeriodWeekly,
			ref:        date(2025, time.March, 12),
			wantStart:  time.Date(2025, time.March, 9, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2025, time.March, 15, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
		{
			name:       "weekly on a sunday is its own start",
			periodType: model.PeriodWeekly,
			ref:        date(2025, time.March, 9),
			wantStart:  time.Date(2025, time.March, 9, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2025, time.March, 15, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
		{
			name:       "weekly spanning a month boundary",
			periodType: model.PeriodWeekly,
			ref:        date(2025, time.April, 1),
			wantStart:  time.Date(2025, time.March, 30, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2025, time.April, 5, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
		{
			name:       "yearly",
			periodType: model.PeriodYearly,
			ref:        date(2025, time.June, 20),
			wantStart:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local),
			wantEnd:    time.Date(2025, time.December, 31, 23, 59, 59, int(999*time.Millisecond), time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := CurrentPeriod(tt.periodType, tt.ref)
			require.NoError(t, err)
			assert.True(t, start.Equal(tt.wantStart), "start = %v, want %v", start, tt.wantStart)
			assert.True(t, end.Equal(tt.wantEnd), "end = %v, want %v", end, tt.wantEnd)
		})
	}

	t.Run("unknown period type", func(t *testing.T) {
		_, _, err := CurrentPeriod("quarterly", date(2025, time.March, 12))
		assert.ErrorIs(t, err, common.ErrInvalidOperation)
	})
}

func TestNextAndPreviousPeriod(t *testing.T) {
	t.Run("next month from jan 31 is february", func(t *testing.T) {
		start, end, err := NextPeriod(model.PeriodMonthly, date(2025, time.January, 31))
		require.NoError(t, err)
		assert.Equal(t, time.February, start.Month())
		assert.Equal(t, 1, start.Day())
		assert.Equal(t, time.February, end.Month())
		assert.Equal(t, 28, end.Day())
	})

	t.Run("previous month from mar 31 is february", func(t *testing.T) {
		start, _, err := PreviousPeriod(model.PeriodMonthly, date(2025, time.March, 31))
		require.NoError(t, err)
		assert.Equal(t, time.February, start.Month())
		assert.Equal(t, 2025, start.Year())
	})

	t.Run("next week", func(t *testing.T) {
		start, _, err := NextPeriod(model.PeriodWeekly, date(2025, time.March, 12))
		require.NoError(t, err)
		assert.True(t, start.Equal(time.Date(2025, time.March, 16, 0, 0, 0, 0, time.Local)))
	})

	t.Run("previous year", func(t *testing.T) {
		start, end, err := PreviousPeriod(model.PeriodYearly, date(2025, time.June, 20))
		require.NoError(t, err)
		assert.Equal(t, 2024, start.Year())
		assert.Equal(t, 2024, end.Year())
	})

	t.Run("next and previous round-trip", func(t *testing.T) {
		ref := date(2025, time.May, 15)
		current, _, err := CurrentPeriod(model.PeriodMonthly, ref)
		require.NoError(t, err)

		next, _, err := NextPeriod(model.PeriodMonthly, ref)
		require.NoError(t, err)
		back, _, err := PreviousPeriod(model.PeriodMonthly, next)
		require.NoError(t, err)
		assert.True(t, back.Equal(current))
	})
}
