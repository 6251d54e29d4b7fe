package portal

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/util/sliceutil"
)

// catalog is what one authenticated landing page offers for scraping.
// Discovered fresh each run, never cached.
type catalog struct {
	accounts []discoveredAccount
	periods  []domain.Period // ascending by (year, month)
}

// discoveredAccount pairs a card with the dashboard tile it was found on, so
// selection clicks the right tile even when affordance tiles sit between cards.
type discoveredAccount struct {
	card domain.AccountCard
	tile int
}

func discoverCatalog(ctx context.Context, b browser.Capability) (*catalog, error) {
	accounts, err := discoverAccounts(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("discover accounts: %w", err)
	}

	periods, err := discoverPeriods(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("discover periods: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Int("account.total", len(accounts)).
		Int("period.total", len(periods)).
		Msg("discovered portal catalog")

	return &catalog{accounts: accounts, periods: periods}, nil
}

func discoverAccounts(ctx context.Context, b browser.Capability) ([]discoveredAccount, error) {
	total, err := b.Count(ctx, cardTileSelector)
	if err != nil {
		return nil, err
	}

	accounts := make([]discoveredAccount, 0, total)

	for i := range total {
		tile := nthSelector(cardTileSelector, i)

		text, err := b.Text(ctx, tile)
		if err != nil {
			return nil, err
		}

		lowered := strings.ToLower(text)
		if strings.Contains(lowered, "link a new card") {
			continue
		}

		name, err := b.Text(ctx, tile+" "+cardNameSelector)
		if err != nil {
			return nil, err
		}

		if name == "" {
			name = fmt.Sprintf("Card %d", i+1)
		}

		accounts = append(accounts, discoveredAccount{
			card: domain.AccountCard{
				DisplayName: name,
				IsBlocked:   strings.Contains(lowered, "blocked"),
			},
			tile: i,
		})
	}

	return accounts, nil
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func discoverPeriods(ctx context.Context, b browser.Capability) ([]domain.Period, error) {
	total, err := b.Count(ctx, periodOptionSelector)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	periods := make([]domain.Period, 0, total)

	for i := range total {
		option := nthSelector(periodOptionSelector, i)

		label, err := b.Text(ctx, option)
		if err != nil {
			return nil, err
		}

		// The control's synthetic rolling option is not a calendar period.
		if strings.Contains(strings.ToLower(label), "last 7 days") {
			continue
		}

		token, ok, err := b.Attribute(ctx, option, "value")
		if err != nil {
			return nil, err
		}

		if !ok {
			token = label
		}

		period, ok := parsePeriodLabel(label, token)
		if !ok {
			logger.Debug().Str("period.label", label).Msg("discarding unparseable period option")
			continue
		}

		periods = append(periods, period)
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})

	return periods, nil
}

// parsePeriodLabel extracts a month name (full or abbreviated, any case) and
// a 4-digit year from an option label such as "March 2025".
func parsePeriodLabel(label, token string) (domain.Period, bool) {
	yearStr := yearPattern.FindString(label)
	if yearStr == "" {
		return domain.Period{}, false
	}

	year, _ := strconv.Atoi(yearStr)

	for _, field := range strings.Fields(label) {
		if month, ok := domain.MonthFromName(strings.Trim(field, ",.")); ok {
			return domain.Period{Month: month, Year: year, Token: token}, true
		}
	}

	return domain.Period{}, false
}

// scrapePlan fixes the effective window and period iteration order before any
// extraction starts.
type scrapePlan struct {
	periods []domain.Period // descending, most recent first
	start   domain.CalendarDate
	end     domain.CalendarDate

	// suppressBalance is set when the effective end date is strictly before
	// today: the only known anchor balance reflects the present moment, so a
	// running balance reconstructed against an earlier end would be wrong.
	suppressBalance bool
}

// planWindow computes the effective scrape window from the discovered periods
// and the caller's (possibly open-ended) bounds, per the portal's calendar.
func planWindow(periods []domain.Period, window domain.ScrapeWindow, today domain.CalendarDate) (*scrapePlan, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("no selectable periods discovered")
	}

	earliest := periods[0]
	earliestStart := domain.CalendarDate{Year: earliest.Year, Month: earliest.Month, Day: 1}

	start := earliestStart
	if window.Start != nil {
		start = *window.Start
	}

	// A catalog cannot be scraped before its own earliest period.
	if start.Before(earliestStart) {
		start = earliestStart
	}

	end := today
	if window.End != nil {
		end = *window.End
	}

	selected := lo.Filter(periods, func(p domain.Period, _ int) bool {
		return !periodBeforeMonth(p, start) && !monthBeforePeriod(p, end)
	})

	// An empty selection means the bounds fell between discovered periods;
	// fall back to the full set rather than scraping nothing.
	if len(selected) == 0 {
		selected = periods
	}

	return &scrapePlan{
		periods:         sliceutil.Reversed(selected),
		start:           start,
		end:             end,
		suppressBalance: end.Before(today),
	}, nil
}

func periodBeforeMonth(p domain.Period, d domain.CalendarDate) bool {
	if p.Year != d.Year {
		return p.Year < d.Year
	}

	return p.Month < d.Month
}

func monthBeforePeriod(p domain.Period, d domain.CalendarDate) bool {
	if p.Year != d.Year {
		return p.Year > d.Year
	}

	return p.Month > d.Month
}

func nthSelector(selector string, index int) string {
	return fmt.Sprintf("%s:nth-of-type(%d)", selector, index+1)
}
