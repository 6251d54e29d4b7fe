package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halkwu/opal-card/internal/browser/browsertest"
	"github.com/halkwu/opal-card/internal/domain"
)

func TestDiscoverAccounts(t *testing.T) {
	t.Parallel()

	fake := browsertest.New(browsertest.State{})
	fake.Mutate(func(s *browsertest.State) {
		s.Counts = map[string]int{cardTileSelector: 3}

		s.SetText(nthSelector(cardTileSelector, 0), "Link a new card")
		s.SetText(nthSelector(cardTileSelector, 1), "Opal Card 1 $12.00")
		s.SetText(nthSelector(cardTileSelector, 1)+" "+cardNameSelector, "Opal Card 1")
		s.SetText(nthSelector(cardTileSelector, 2), "Opal Card 2 (Blocked)")
		s.SetText(nthSelector(cardTileSelector, 2)+" "+cardNameSelector, "Opal Card 2")
	})

	accounts, err := discoverAccounts(t.Context(), fake)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// The affordance tile is skipped but still occupies a tile slot, so card
	// positions must not collapse to slice indices.
	require.Equal(t, "Opal Card 1", accounts[0].card.DisplayName)
	require.False(t, accounts[0].card.IsBlocked)
	require.Equal(t, 1, accounts[0].tile)

	require.Equal(t, "Opal Card 2", accounts[1].card.DisplayName)
	require.True(t, accounts[1].card.IsBlocked)
	require.Equal(t, 2, accounts[1].tile)
}

func TestParsePeriodLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		label    string
		expected domain.Period
		ok       bool
	}{
		"full month name": {
			label:    "March 2025",
			expected: domain.Period{Month: time.March, Year: 2025, Token: "2025-03"},
			ok:       true,
		},
		"abbreviated month": {
			label:    "Sep 2024",
			expected: domain.Period{Month: time.September, Year: 2024, Token: "2025-03"},
			ok:       true,
		},
		"year first": {
			label:    "2024, December",
			expected: domain.Period{Month: time.December, Year: 2024, Token: "2025-03"},
			ok:       true,
		},
		"no year": {label: "March", ok: false},
		"no month": {label: "Quarter 2025", ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			period, ok := parsePeriodLabel(test.label, "2025-03")

			require.Equal(t, test.ok, ok)
			if test.ok {
				require.Equal(t, test.expected, period)
			}
		})
	}
}

func periodsFixture() []domain.Period {
	return []domain.Period{
		{Month: time.March, Year: 2023, Token: "2023-03"},
		{Month: time.April, Year: 2023, Token: "2023-04"},
		{Month: time.May, Year: 2023, Token: "2023-05"},
		{Month: time.June, Year: 2023, Token: "2023-06"},
	}
}

func date(year int, month time.Month, day int) domain.CalendarDate {
	return domain.CalendarDate{Year: year, Month: month, Day: day}
}

func TestPlanWindow(t *testing.T) {
	t.Parallel()

	today := date(2023, time.June, 15)

	t.Run("defaults to full discovered range", func(t *testing.T) {
		t.Parallel()

		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{}, today)
		require.NoError(t, err)

		require.Equal(t, date(2023, time.March, 1), plan.start)
		require.Equal(t, today, plan.end)
		require.False(t, plan.suppressBalance)
		require.Len(t, plan.periods, 4)
	})

	t.Run("iterates periods most recent first", func(t *testing.T) {
		t.Parallel()

		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{}, today)
		require.NoError(t, err)

		for i := 1; i < len(plan.periods); i++ {
			require.True(t, plan.periods[i].Before(plan.periods[i-1]))
		}
	})

	t.Run("clamps start predating the earliest period", func(t *testing.T) {
		t.Parallel()

		start := date(2023, time.January, 1)
		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{Start: &start}, today)
		require.NoError(t, err)

		require.Equal(t, date(2023, time.March, 1), plan.start)
		require.Len(t, plan.periods, 4)
	})

	t.Run("selects only periods within the bounds", func(t *testing.T) {
		t.Parallel()

		start := date(2023, time.April, 10)
		end := date(2023, time.May, 20)

		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{Start: &start, End: &end}, today)
		require.NoError(t, err)

		require.Len(t, plan.periods, 2)
		require.Equal(t, time.May, plan.periods[0].Month)
		require.Equal(t, time.April, plan.periods[1].Month)
	})

	t.Run("falls back to full set when nothing is in range", func(t *testing.T) {
		t.Parallel()

		start := date(2024, time.January, 1)
		end := date(2024, time.February, 1)

		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{Start: &start, End: &end}, today)
		require.NoError(t, err)

		require.Len(t, plan.periods, 4)
	})

	t.Run("suppresses balance when end is before today", func(t *testing.T) {
		t.Parallel()

		end := date(2023, time.May, 31)
		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{End: &end}, today)
		require.NoError(t, err)

		require.True(t, plan.suppressBalance)
	})

	t.Run("end of today does not suppress balance", func(t *testing.T) {
		t.Parallel()

		end := today
		plan, err := planWindow(periodsFixture(), domain.ScrapeWindow{End: &end}, today)
		require.NoError(t, err)

		require.False(t, plan.suppressBalance)
	})

	t.Run("errors when no periods discovered", func(t *testing.T) {
		t.Parallel()

		_, err := planWindow(nil, domain.ScrapeWindow{}, today)
		require.ErrorContains(t, err, "no selectable periods")
	})
}
