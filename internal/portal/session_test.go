package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/browser/browsertest"
)

func newLoginFake(onSubmit func(*browsertest.State)) *browsertest.Fake {
	fake := browsertest.New(browsertest.State{})

	fake.OnNavigate = map[string]func(*browsertest.State){
		loginURL: func(s *browsertest.State) {
			s.SetText(usernameSelector, "")
			s.SetText(passwordSelector, "")
		},
	}

	fake.OnClick = map[string]func(*browsertest.State){
		submitSelector: onSubmit,
	}

	return fake
}

func newTestScraper(fake *browsertest.Fake) *Scraper {
	return New(
		func(ctx context.Context, headful bool) (browser.Capability, error) {
			return fake, nil
		},
		WithWaits(100*time.Millisecond, 10*time.Millisecond),
	)
}

func TestEstablishSession(t *testing.T) {
	t.Parallel()

	creds := Credentials{Username: "user@example.com", Password: "secret"}

	t.Run("succeeds when navigation lands on the dashboard", func(t *testing.T) {
		t.Parallel()

		fake := newLoginFake(func(s *browsertest.State) {
			s.URL = dashboardURLPrefix + "/overview"
		})

		scraper := newTestScraper(fake)

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, 0, fake.CloseCount())

		scraper.CloseSession(session)
		require.Equal(t, 1, fake.CloseCount())

		// Closing again is a no-op.
		scraper.CloseSession(session)
		require.Equal(t, 1, fake.CloseCount())
	})

	t.Run("classifies credential keywords as invalid credentials", func(t *testing.T) {
		t.Parallel()

		fake := newLoginFake(func(s *browsertest.State) {
			s.SetText(loginErrorSelector, "Your username or password is incorrect.")
		})

		scraper := newTestScraper(fake)

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.Nil(t, session)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Equal(t, 1, fake.CloseCount(), "browser must be released before the error propagates")
	})

	t.Run("surfaces unclassified portal text as a login error", func(t *testing.T) {
		t.Parallel()

		fake := newLoginFake(func(s *browsertest.State) {
			s.SetText(loginErrorSelector, "Service temporarily unavailable")
		})

		scraper := newTestScraper(fake)

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.Nil(t, session)

		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		require.Equal(t, "Service temporarily unavailable", loginErr.Text)
		require.Equal(t, 1, fake.CloseCount())
	})

	t.Run("times out when neither wait resolves", func(t *testing.T) {
		t.Parallel()

		fake := newLoginFake(func(s *browsertest.State) {})

		scraper := newTestScraper(fake)

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.Nil(t, session)
		require.ErrorIs(t, err, ErrLoginTimeout)
		require.Equal(t, 1, fake.CloseCount())
	})

	t.Run("times out when the login form never appears", func(t *testing.T) {
		t.Parallel()

		fake := browsertest.New(browsertest.State{})

		scraper := newTestScraper(fake)

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.Nil(t, session)
		require.ErrorIs(t, err, ErrLoginTimeout)
		require.Equal(t, 1, fake.CloseCount())
	})

	t.Run("fails when the browser cannot launch", func(t *testing.T) {
		t.Parallel()

		scraper := New(func(ctx context.Context, headful bool) (browser.Capability, error) {
			return nil, errors.New("no chromium binary")
		})

		session, err := scraper.EstablishSession(t.Context(), creds, false)
		require.Nil(t, session)
		require.ErrorContains(t, err, "launch browser")
	})
}
