package portal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/portal"
)

func entryOn(year int, month time.Month, day int) domain.LedgerEntry {
	return domain.LedgerEntry{
		CalendarDate: domain.CalendarDate{Year: year, Month: month, Day: day},
	}
}

func TestFilterByWindow(t *testing.T) {
	t.Parallel()

	entries := []domain.LedgerEntry{
		entryOn(2025, time.March, 31),
		entryOn(2025, time.March, 15),
		entryOn(2025, time.February, 28),
		entryOn(2025, time.January, 2),
	}

	start := domain.CalendarDate{Year: 2025, Month: time.February, Day: 1}
	end := domain.CalendarDate{Year: 2025, Month: time.March, Day: 15}

	tests := map[string]struct {
		window   domain.ScrapeWindow
		expected int
	}{
		"both bounds absent returns all": {
			window:   domain.ScrapeWindow{},
			expected: 4,
		},
		"only end keeps entries on or before it": {
			window:   domain.ScrapeWindow{End: &end},
			expected: 3,
		},
		"only start keeps entries on or after it": {
			window:   domain.ScrapeWindow{Start: &start},
			expected: 3,
		},
		"both bounds keep the inclusive range": {
			window:   domain.ScrapeWindow{Start: &start, End: &end},
			expected: 2,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			filtered := portal.FilterByWindow(entries, test.window)
			require.Len(t, filtered, test.expected)
		})
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		window := domain.ScrapeWindow{Start: &start, End: &end}
		filtered := portal.FilterByWindow(entries, window)

		require.Contains(t, filtered, entryOn(2025, time.March, 15))
		require.Contains(t, filtered, entryOn(2025, time.February, 28))
	})

	t.Run("widening the end bound never drops entries", func(t *testing.T) {
		t.Parallel()

		narrow := portal.FilterByWindow(entries, domain.ScrapeWindow{End: &end})

		widerEnd := end.AddDays(1)
		wide := portal.FilterByWindow(entries, domain.ScrapeWindow{End: &widerEnd})

		for _, entry := range narrow {
			require.Contains(t, wide, entry)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		window := domain.ScrapeWindow{Start: &start, End: &end}

		once := portal.FilterByWindow(entries, window)
		twice := portal.FilterByWindow(once, window)

		require.Equal(t, once, twice)
	})
}
