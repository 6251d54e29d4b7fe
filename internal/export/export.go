// Package export orchestrates a single extraction run: input validation at
// the boundary, session lifecycle, extraction, and output shaping.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/portal"
)

// ErrMalformedInput marks window-validation failures. They are rejected
// before any remote interaction occurs.
var ErrMalformedInput = errors.New("malformed input")

// Options is the caller-facing input accepted by every collaborator shape.
type Options struct {
	Username     string
	Password     string
	StartDateStr string // optional, month-day-year order, slash or hyphen separated
	EndDateStr   string // optional, same format
	Headful      bool   // run the automation observably instead of unattended
}

func (o Options) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &o,
		validation.Field(&o.Username, validation.Required.Error("is required")),
		validation.Field(&o.Password, validation.Required.Error("is required")),
		validation.Field(&o.StartDateStr, validation.By(dateRule)),
		validation.Field(&o.EndDateStr, validation.By(dateRule)),
	)
}

func dateRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	_, err := domain.ParseCalendarDate(s)

	return err
}

// Window parses and validates the optional date bounds against "today" in the
// portal timezone. Both bounds are validated independently; a start after end
// is rejected before any extraction begins.
func (o Options) Window(now time.Time) (domain.ScrapeWindow, error) {
	var window domain.ScrapeWindow

	today := domain.Today(now)

	if o.StartDateStr != "" {
		start, err := domain.ParseCalendarDate(o.StartDateStr)
		if err != nil {
			return window, fmt.Errorf("%w: start date: %v", ErrMalformedInput, err)
		}

		if start.After(today) {
			return window, fmt.Errorf("%w: start date %s is in the future", ErrMalformedInput, start)
		}

		window.Start = &start
	}

	if o.EndDateStr != "" {
		end, err := domain.ParseCalendarDate(o.EndDateStr)
		if err != nil {
			return window, fmt.Errorf("%w: end date: %v", ErrMalformedInput, err)
		}

		if end.After(today) {
			return window, fmt.Errorf("%w: end date %s is in the future", ErrMalformedInput, end)
		}

		window.End = &end
	}

	if window.Start != nil && window.End != nil && window.Start.After(*window.End) {
		return window, fmt.Errorf("%w: start date %s is after end date %s", ErrMalformedInput, window.Start, window.End)
	}

	return window, nil
}

// Run executes a full extraction: validate, establish a session, extract the
// filtered ledger, and release the session on every exit path.
func Run(ctx context.Context, scraper *portal.Scraper, opts Options, onProgress portal.ProgressFunc) ([]domain.LedgerEntry, error) {
	if err := opts.Validate(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	window, err := opts.Window(time.Now())
	if err != nil {
		return nil, err
	}

	creds := portal.Credentials{Username: opts.Username, Password: opts.Password}

	session, err := scraper.EstablishSession(ctx, creds, opts.Headful)
	if err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}
	defer scraper.CloseSession(session)

	entries, err := scraper.ExtractLedger(ctx, session, window, onProgress)
	if err != nil {
		return nil, fmt.Errorf("extract ledger: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Int("entry.total", len(entries)).
		Msg("run complete")

	return entries, nil
}
