package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

var _ Capability = (*Chrome)(nil)

// Chrome drives a locally-launched Chromium instance via the DevTools
// protocol. One Chrome value owns one browser process; Close tears it down.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// NewChrome launches a browser and returns a capability bound to a fresh tab.
// The returned value must be closed by the caller on every exit path.
func NewChrome(ctx context.Context, headful bool) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !headful),
		chromedp.Flag("disable-gpu", !headful),
		chromedp.WindowSize(1280, 960),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// Launch eagerly so a missing browser binary fails here, not mid-login.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		c.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Bool("browser.headful", headful).Msg("launched browser")

	return c, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, DefaultWait, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	return nil
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := c.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, ErrWaitTimeout)
	}

	return nil
}

func (c *Chrome) WaitURLPrefix(ctx context.Context, prefix string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		url, err := c.CurrentURL(ctx)
		if err != nil {
			return err
		}

		if strings.HasPrefix(url, prefix) {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("wait for url %s*: %w", prefix, ErrWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c *Chrome) WaitResponse(ctx context.Context, urlFragment string, timeout time.Duration) error {
	matched := make(chan struct{}, 1)

	listenCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	chromedp.ListenTarget(listenCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if strings.Contains(resp.Response.URL, urlFragment) {
				select {
				case matched <- struct{}{}:
				default:
				}
			}
		}
	})

	select {
	case <-matched:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("wait for response %q: %w", urlFragment, ErrWaitTimeout)
	}
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	if err := c.run(ctx, DefaultWait, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}

	return nil
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	err := c.run(ctx, DefaultWait,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}

	return nil
}

func (c *Chrome) SelectOption(ctx context.Context, selector, value string) error {
	err := c.run(ctx, DefaultWait,
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(
			`document.querySelector(%q).dispatchEvent(new Event('change', {bubbles: true}))`, selector,
		), nil),
	)
	if err != nil {
		return fmt.Errorf("select %q on %q: %w", value, selector, err)
	}

	return nil
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	var text string

	err := c.run(ctx, DefaultWait, chromedp.Evaluate(fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? el.textContent : ""; })()`, selector,
	), &text))
	if err != nil {
		return "", fmt.Errorf("read text %q: %w", selector, err)
	}

	return strings.TrimSpace(text), nil
}

func (c *Chrome) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string

	err := c.run(ctx, DefaultWait, chromedp.Evaluate(fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q), el => el.textContent.trim())`, selector,
	), &texts))
	if err != nil {
		return nil, fmt.Errorf("read texts %q: %w", selector, err)
	}

	return texts, nil
}

func (c *Chrome) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var result struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}

	err := c.run(ctx, DefaultWait, chromedp.Evaluate(fmt.Sprintf(
		`(() => {
			const el = document.querySelector(%q);
			if (!el || el.getAttribute(%q) === null) return {found: false, value: ""};
			return {found: true, value: el.getAttribute(%q)};
		})()`, selector, name, name,
	), &result))
	if err != nil {
		return "", false, fmt.Errorf("read attribute %q of %q: %w", name, selector, err)
	}

	return result.Value, result.Found, nil
}

func (c *Chrome) Count(ctx context.Context, selector string) (int, error) {
	var count int

	err := c.run(ctx, DefaultWait, chromedp.Evaluate(fmt.Sprintf(
		`document.querySelectorAll(%q).length`, selector,
	), &count))
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}

	return count, nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string

	if err := c.run(ctx, DefaultWait, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read url: %w", err)
	}

	return url, nil
}

// Close tears the tab and browser process down. Safe to call more than once.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.cancelTab()
		c.cancelAlloc()
	})

	return nil
}

func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(runCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}
