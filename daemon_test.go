package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

func TestDurationToNextRefresh(t *testing.T) {
	testCases := []struct {
		name           string
		refreshMinutes int
		currentTime    time.Time
		expectedDurMin float64
	}{
		{"11:10:15->12:00:00", 60, time.Date(2024, 1, 1, 11, 10, 15, 0, time.UTC), 49.75},
		{"11:55:15->12:00:00", 60, time.Date(2024, 1, 1, 11, 55, 15, 0, time.UTC), 4.75},
		{"00:00:00->00:15:00", 15, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 15.0},
		{"00:15:30->00:30:00", 15, time.Date(2024, 1, 1, 0, 15, 30, 0, time.UTC), 14.5},
		{"00:07:30->00:15:00", 15, time.Date(2024, 1, 1, 0, 7, 30, 0, time.UTC), 7.5},
		{"00:04:59->00:05:00", 5, time.Date(2024, 1, 1, 0, 4, 59, 0, time.UTC), 1.0 / 60},
		{"01 12:00:00->02 00:00:00", 24 * 60, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 12 * 60.0},
		{"zero interval falls back to a minute", 0, time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC), 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actualDur := durationToNextRefresh(tc.currentTime, tc.refreshMinutes)
			assert.InDelta(t, tc.expectedDurMin, actualDur.Minutes(), 0.01,
				"case: %s, expected duration of around %f minutes, but got duration of %v", tc.name, tc.expectedDurMin, actualDur)
		})
	}
}

func TestShortfalls(t *testing.T) {
	expected := map[staking.AssetID]uint64{1: 1, 2: 3, 3: 100}
	actual := map[staking.AssetID]uint64{1: 1, 2: 2, 3: 500, 4: 7}
	assert.Equal(t, 1, shortfalls(slog.Default(), 1, expected, actual))
	assert.Equal(t, 0, shortfalls(slog.Default(), 1, nil, actual))
	assert.Equal(t, 3, shortfalls(slog.Default(), 1, expected, nil))
}
