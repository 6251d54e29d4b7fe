package portal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/halkwu/opal-card/internal/browser"
)

// Credentials authenticate one run against the portal. They are held only for
// the duration of the call that supplies them and are never persisted.
type Credentials struct {
	Username string
	Password string
}

// Session is an authenticated handle over a live browser. It is exclusively
// owned by one run at a time and must be closed on every exit path.
type Session struct {
	browser   browser.Capability
	closeOnce sync.Once
}

// Close releases the underlying browser. Idempotent, best-effort.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.browser.Close()
	})
}

// invalidCredentialKeywords classify the portal's inline error text as a
// credential failure. Matching is case-insensitive substring.
var invalidCredentialKeywords = []string{
	"invalid",
	"incorrect",
	"wrong",
	"not match",
	"password",
	"username",
	"email",
}

// establish drives the login form and classifies the outcome. On any failure
// the browser is released before the error propagates; ownership transfers to
// the returned Session only on success.
func establish(ctx context.Context, b browser.Capability, creds Credentials, wait time.Duration) (*Session, error) {
	session, err := tryLogin(ctx, b, creds, wait)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	return session, nil
}

func tryLogin(ctx context.Context, b browser.Capability, creds Credentials, wait time.Duration) (*Session, error) {
	logger := zerolog.Ctx(ctx)

	if err := b.Navigate(ctx, loginURL); err != nil {
		return nil, err
	}

	if err := b.WaitVisible(ctx, usernameSelector, wait); err != nil {
		return nil, ErrLoginTimeout
	}

	if err := b.Fill(ctx, usernameSelector, creds.Username); err != nil {
		return nil, err
	}

	if err := b.Fill(ctx, passwordSelector, creds.Password); err != nil {
		return nil, err
	}

	if err := b.Click(ctx, submitSelector); err != nil {
		return nil, err
	}

	logger.Debug().Msg("submitted login form")

	switch outcome := raceLoginOutcome(ctx, b, wait); outcome.kind {
	case loginNavigated:
		logger.Info().Msg("authenticated against portal")
		return &Session{browser: b}, nil

	case loginInlineError:
		return nil, classifyLoginError(outcome.errorText)

	default:
		// Neither wait settled; one last look at the URL before giving up, in
		// case navigation landed between the two timeouts.
		url, err := b.CurrentURL(ctx)
		if err == nil && strings.HasPrefix(url, dashboardURLPrefix) {
			logger.Info().Msg("authenticated against portal")
			return &Session{browser: b}, nil
		}

		return nil, ErrLoginTimeout
	}
}

type loginOutcomeKind int

const (
	loginUnresolved loginOutcomeKind = iota
	loginNavigated
	loginInlineError
)

type loginOutcome struct {
	kind      loginOutcomeKind
	errorText string
}

// raceLoginOutcome issues two bounded waits concurrently, navigation to the
// authenticated landing URL against appearance of the inline login error, and
// takes whichever settles successfully first, cancelling the loser.
func raceLoginOutcome(ctx context.Context, b browser.Capability, wait time.Duration) loginOutcome {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan loginOutcome, 2)

	go func() {
		if err := b.WaitURLPrefix(raceCtx, dashboardURLPrefix, wait); err != nil {
			results <- loginOutcome{kind: loginUnresolved}
			return
		}

		results <- loginOutcome{kind: loginNavigated}
	}()

	go func() {
		if err := b.WaitVisible(raceCtx, loginErrorSelector, wait); err != nil {
			results <- loginOutcome{kind: loginUnresolved}
			return
		}

		text, err := b.Text(raceCtx, loginErrorSelector)
		if err != nil {
			results <- loginOutcome{kind: loginUnresolved}
			return
		}

		results <- loginOutcome{kind: loginInlineError, errorText: text}
	}()

	for range 2 {
		outcome := <-results
		if outcome.kind != loginUnresolved {
			return outcome
		}
	}

	return loginOutcome{kind: loginUnresolved}
}

func classifyLoginError(text string) error {
	lowered := strings.ToLower(text)

	for _, keyword := range invalidCredentialKeywords {
		if strings.Contains(lowered, keyword) {
			return ErrInvalidCredentials
		}
	}

	return &LoginError{Text: strings.TrimSpace(text)}
}
