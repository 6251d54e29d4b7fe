package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/domain"
)

const (
	defaultLoginWait = 10 * time.Second
	defaultFetchWait = browser.DefaultResponseWait
)

// ProgressFunc receives extraction checkpoints. Events are emitted
// synchronously after each period, in iteration order.
type ProgressFunc func(domain.ProgressEvent)

// Scraper is the extraction engine facade. One Scraper may serve many runs,
// but each run owns its browser session exclusively and visits accounts and
// periods strictly sequentially: the period control is stateful (one selected
// period at a time) and the balance reconstruction needs descending-time
// iteration.
type Scraper struct {
	factory   browser.Factory
	loginWait time.Duration
	fetchWait time.Duration
	now       func() time.Time
}

type Option func(*Scraper)

// WithWaits overrides the login and data-fetch wait bounds.
func WithWaits(login, fetch time.Duration) Option {
	return func(s *Scraper) {
		s.loginWait = login
		s.fetchWait = fetch
	}
}

// WithClock overrides the time source used for "today" computations.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

func New(factory browser.Factory, opts ...Option) *Scraper {
	s := &Scraper{
		factory:   factory,
		loginWait: defaultLoginWait,
		fetchWait: defaultFetchWait,
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(s)
	}

	return s
}

// EstablishSession launches a browser, drives the login form, and returns an
// authenticated handle. On every failure path the browser is released before
// the error propagates.
func (s *Scraper) EstablishSession(ctx context.Context, creds Credentials, headful bool) (*Session, error) {
	b, err := s.factory(ctx, headful)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	session, err := establish(ctx, b, creds, s.loginWait)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// CloseSession releases the session's browser. Idempotent, best-effort, and
// safe on a nil session.
func (s *Scraper) CloseSession(session *Session) {
	if session == nil {
		return
	}

	session.Close()
}

// ExtractLedger discovers the catalog, iterates every non-blocked account
// across the planned periods in descending order, reconstructs per-entry
// running balances, and returns the entries filtered to the caller's window.
func (s *Scraper) ExtractLedger(ctx context.Context, session *Session, window domain.ScrapeWindow, onProgress ProgressFunc) ([]domain.LedgerEntry, error) {
	logger := zerolog.Ctx(ctx)
	b := session.browser

	cat, err := discoverCatalog(ctx, b)
	if err != nil {
		return nil, err
	}

	today := domain.Today(s.now())

	plan, err := planWindow(cat.periods, window, today)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("window.start", plan.start.String()).
		Str("window.end", plan.end.String()).
		Int("period.selected", len(plan.periods)).
		Bool("balance.suppressed", plan.suppressBalance).
		Msg("planned extraction window")

	active := make([]int, 0, len(cat.accounts))
	for i, account := range cat.accounts {
		if account.card.IsBlocked {
			logger.Info().Str("account.name", account.card.DisplayName).Msg("skipping blocked card")
			continue
		}

		active = append(active, i)
	}

	var (
		entries     []domain.LedgerEntry
		processed   int
		unavailable int
	)

	totalSteps := len(active) * len(plan.periods)

	for _, idx := range active {
		account := &cat.accounts[idx]

		accountEntries, missing, err := s.extractAccount(ctx, b, account, plan, onProgress, &processed, totalSteps)
		if err != nil {
			return nil, err
		}

		unavailable += missing
		entries = append(entries, accountEntries...)
	}

	if unavailable > 0 {
		logger.Info().Int("period.unavailable", unavailable).Msg("some periods had no activity data")
	}

	filtered := FilterByWindow(entries, window)

	logger.Info().
		Int("entry.total", len(entries)).
		Int("entry.filtered", len(filtered)).
		Msg("extracted ledger")

	return filtered, nil
}

// extractAccount selects the account tile, anchors the running balance from
// the displayed value, then walks the planned periods most-recent-first. A
// period without data counts as unavailable and the loop continues.
func (s *Scraper) extractAccount(ctx context.Context, b browser.Capability, account *discoveredAccount, plan *scrapePlan, onProgress ProgressFunc, processed *int, totalSteps int) ([]domain.LedgerEntry, int, error) {
	logger := zerolog.Ctx(ctx)

	if err := b.Click(ctx, nthSelector(cardTileSelector, account.tile)); err != nil {
		return nil, 0, fmt.Errorf("select card %q: %w", account.card.DisplayName, err)
	}

	// The anchor balance is read exactly once per account, before any period
	// is touched.
	rawBalance, err := b.Text(ctx, cardBalanceSelector)
	if err != nil {
		return nil, 0, err
	}

	if minor, ok := parseAmountMagnitude(rawBalance); ok {
		account.card.Balance = domain.Money{MinorUnit: minor, Currency: domain.DefaultCurrency}
		account.card.HasBalance = true
	}

	logger.Debug().
		Str("account.name", account.card.DisplayName).
		Str("account.balance", rawBalance).
		Msg("selected card")

	var (
		entries     []domain.LedgerEntry
		unavailable int
	)

	for _, period := range plan.periods {
		periodEntries, err := extractPeriod(ctx, b, account.card.DisplayName, period, s.fetchWait)
		if err != nil {
			return nil, 0, fmt.Errorf("period %s: %w", period.Label(), err)
		}

		if periodEntries == nil {
			unavailable++
		}

		entries = append(entries, periodEntries...)

		*processed++
		if onProgress != nil {
			onProgress(domain.ProgressEvent{
				Percent: *processed * 100 / totalSteps,
				Message: fmt.Sprintf("%s · %s", account.card.DisplayName, period.Label()),
			})
		}
	}

	if !plan.suppressBalance && account.card.HasBalance {
		stampRunningBalance(entries, account.card.Balance)
	}

	return entries, unavailable, nil
}
