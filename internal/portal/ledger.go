package portal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/domain"
)

// topUpKeywords mark an amount as a balance credit. The classification is
// derived from text, never taken from the sign the portal happens to render.
var topUpKeywords = []string{
	"top-up",
	"topup",
	"top up",
	"recharge",
	"credited",
	"add funds",
	"load",
	"added",
}

var (
	amountPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
	clockPattern  = regexp.MustCompile(`(?i)^(\d{1,2})[:.](\d{2})\s*(am|pm)?$`)
)

// classifyAmount turns the portal's raw amount text into signed minor units:
// negative for a charge, non-negative for a top-up. The description
// participates in classification because some top-up rows render a bare
// amount. An unparsable amount is treated as zero.
func classifyAmount(rawAmount, description string) int64 {
	magnitude, ok := parseAmountMagnitude(rawAmount)
	if !ok || magnitude == 0 {
		return 0
	}

	lowered := strings.ToLower(rawAmount + " " + description)

	isTopUp := strings.Contains(lowered, "top")
	for _, keyword := range topUpKeywords {
		if strings.Contains(lowered, keyword) {
			isTopUp = true
			break
		}
	}

	if isTopUp {
		return magnitude
	}

	return -magnitude
}

// parseAmountMagnitude strips currency symbols and thousands separators and
// takes the first decimal token as an unsigned amount in minor units.
func parseAmountMagnitude(raw string) (int64, bool) {
	cleaned := strings.NewReplacer("$", "", "A$", "", ",", "").Replace(raw)

	token := amountPattern.FindString(cleaned)
	if token == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimPrefix(token, "+"), 64)
	if err != nil {
		return 0, false
	}

	if value < 0 {
		value = -value
	}

	return int64(value*100 + 0.5), true
}

// parseDayHeader parses a date-block header such as "Wednesday 12 March 2025"
// into a calendar date. Weekday and ordinal noise are ignored; the day,
// month-name, and year tokens are what matter.
func parseDayHeader(header string) (domain.CalendarDate, error) {
	var (
		day, year int
		month     time.Month
		haveMonth bool
	)

	for _, field := range strings.Fields(header) {
		token := strings.Trim(field, ",.")

		if m, ok := domain.MonthFromName(token); ok {
			month = m
			haveMonth = true
			continue
		}

		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(token), "st"), "nd"), "rd"), "th"))
		if err != nil {
			continue
		}

		switch {
		case n >= 1000:
			year = n
		case n >= 1 && n <= 31 && day == 0:
			day = n
		}
	}

	if day == 0 || year == 0 || !haveMonth {
		return domain.CalendarDate{}, fmt.Errorf("unparseable day header %q", header)
	}

	return domain.CalendarDate{Year: year, Month: month, Day: day}, nil
}

// parseClockTime parses the line item's local time, 12h ("3:42 pm") or 24h
// ("15:42"). Missing or malformed times default to midnight.
func parseClockTime(raw string) (hour, minute int) {
	matches := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if matches == nil {
		return 0, 0
	}

	hour, _ = strconv.Atoi(matches[1])
	minute, _ = strconv.Atoi(matches[2])

	switch strings.ToLower(matches[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0
	}

	return hour, minute
}

// extractPeriod reads every entry the activity view renders for the currently
// selected (account, period) pair, in render order (most recent first). An
// absent activity container yields zero entries; a missing data fetch only
// degrades the wait, it never fails the period.
func extractPeriod(ctx context.Context, b browser.Capability, accountID string, period domain.Period, fetchWait time.Duration) ([]domain.LedgerEntry, error) {
	logger := zerolog.Ctx(ctx)

	if err := b.SelectOption(ctx, periodControlSelector, period.Token); err != nil {
		return nil, fmt.Errorf("select period %s: %w", period.Label(), err)
	}

	// Best effort: a slow or cached fetch is not fatal, the DOM read below
	// simply sees whatever is rendered.
	if err := b.WaitResponse(ctx, activityFetchFragment, fetchWait); err != nil {
		logger.Debug().
			Str("period.label", period.Label()).
			Msg("activity fetch did not complete within bound")
	}

	present, err := b.Count(ctx, activityListSelector)
	if err != nil {
		return nil, err
	}

	if present == 0 {
		return nil, nil
	}

	blocks, err := b.Count(ctx, dayBlockSelector)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, 0)

	for blockIdx := range blocks {
		block := nthSelector(dayBlockSelector, blockIdx)

		header, err := b.Text(ctx, block+" "+dayHeaderSelector)
		if err != nil {
			return nil, err
		}

		date, err := parseDayHeader(header)
		if err != nil {
			logger.Debug().Str("day.header", header).Msg("skipping unparseable day block")
			continue
		}

		items, err := b.Count(ctx, block+" "+lineItemSelector)
		if err != nil {
			return nil, err
		}

		for itemIdx := range items {
			item := nthSelector(block+" "+lineItemSelector, itemIdx)

			entry, err := extractLineItem(ctx, b, item, accountID, date)
			if err != nil {
				return nil, err
			}

			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func extractLineItem(ctx context.Context, b browser.Capability, item, accountID string, date domain.CalendarDate) (domain.LedgerEntry, error) {
	rawTime, err := b.Text(ctx, item+" "+itemTimeSelector)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	description, err := b.Text(ctx, item+" "+itemSummarySelector)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	rawAmount, err := b.Text(ctx, item+" "+itemAmountSelector)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	iconHref, _, err := b.Attribute(ctx, item+" "+itemIconSelector, "xlink:href")
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	tapOn, err := b.Text(ctx, item+" "+itemTapOnSelector)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	// A tap-off without a tap-on is rendered as a plain description row, so
	// the to-location is only meaningful when a from-location was present.
	tapOff := ""
	if tapOn != "" {
		tapOff, err = b.Text(ctx, item+" "+itemTapOffSelector)
		if err != nil {
			return domain.LedgerEntry{}, err
		}
	}

	hour, minute := parseClockTime(rawTime)
	local := date.At(hour, minute)

	amount := classifyAmount(rawAmount, description)

	status := domain.StatusPosted
	if amount == 0 {
		status = domain.StatusPending
	}

	return domain.LedgerEntry{
		CalendarDate:   date,
		LocalTimestamp: local,
		UTCTimestamp:   local.UTC(),
		Amount:         domain.Money{MinorUnit: amount, Currency: domain.DefaultCurrency},
		AccountID:      accountID,
		Mode:           domain.ModeFromIcon(iconHref),
		Description:    description,
		TapOn:          tapOn,
		TapOff:         tapOff,
		Status:         status,
	}, nil
}

// stampRunningBalance walks entries in descending-time order, stamping each
// with the running balance as anchored to the presently displayed value, then
// rolling the balance back by the entry's signed amount for the next (older)
// entry. A long backward chain is only as accurate as the entries it saw; the
// result is a reconstruction, not an audited figure.
func stampRunningBalance(entries []domain.LedgerEntry, anchor domain.Money) {
	running := anchor.MinorUnit

	for i := range entries {
		balance := domain.Money{MinorUnit: running, Currency: anchor.Currency}.String()
		entries[i].ImpliedBalance = &balance

		running += entries[i].Amount.MinorUnit
	}
}
