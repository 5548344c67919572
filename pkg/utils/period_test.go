package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodStart(t *testing.T) {
	// Wednesday, mid-afternoon.
	now := time.Date(2026, time.August, 26, 15, 42, 10, 0, time.UTC)

	tests := []struct {
		window string
		want   time.Time
	}{
		{"daily", time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)},
		{"weekly", time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)},
		{"monthly", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{"quarterly", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{"yearly", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.window, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodStart(now, tt.window))
		})
	}
}

func TestPeriodStartWeekBeginsMonday(t *testing.T) {
	monday := time.Date(2026, time.August, 24, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC), PeriodStart(monday, "weekly"))

	sunday := time.Date(2026, time.August, 30, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC), PeriodStart(sunday, "weekly"))
}

func TestPreviousPeriodStart(t *testing.T) {
	now := time.Date(2026, time.August, 26, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC), PreviousPeriodStart(now, "daily"))
	assert.Equal(t, time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC), PreviousPeriodStart(now, "weekly"))
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), PreviousPeriodStart(now, "monthly"))
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), PreviousPeriodStart(now, "quarterly"))
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), PreviousPeriodStart(now, "yearly"))
}
