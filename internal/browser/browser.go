// Package browser abstracts the remote automation surface behind a narrow
// capability interface so the extraction engine can be exercised against a
// fake implementation instead of a live browser.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by the bounded-wait operations when the awaited
// condition did not materialise within the bound.
var ErrWaitTimeout = errors.New("browser: wait timed out")

const (
	// DefaultWait bounds selector and URL waits.
	DefaultWait = 10 * time.Second
	// DefaultResponseWait bounds waits for the portal's data fetches.
	DefaultResponseWait = 6 * time.Second
)

// Capability is the narrow automation surface the extraction engine drives.
// Every call is a suspension point; callers never issue two calls for the
// same session concurrently. All waits are bounded and fail with
// ErrWaitTimeout rather than hanging.
type Capability interface {
	// Navigate loads the given URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// WaitURLPrefix blocks until the page URL starts with the given prefix.
	WaitURLPrefix(ctx context.Context, prefix string, timeout time.Duration) error
	// WaitResponse blocks until a network response whose URL contains the
	// given fragment has completed.
	WaitResponse(ctx context.Context, urlFragment string, timeout time.Duration) error
	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// Fill types the value into the first element matching the selector.
	Fill(ctx context.Context, selector, value string) error
	// SelectOption sets the value of a select control and fires its change event.
	SelectOption(ctx context.Context, selector, value string) error
	// Text returns the trimmed text content of the first match, or "" when
	// nothing matches.
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the trimmed text content of every match, in document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Attribute reads an attribute of the first match. The bool reports
	// whether the element and attribute were present.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	// Count returns the number of elements matching the selector.
	Count(ctx context.Context, selector string) (int, error)
	// CurrentURL returns the page's current URL.
	CurrentURL(ctx context.Context) (string, error)
	// Close releases the underlying browser resources. Idempotent.
	Close() error
}

// Factory creates a fresh capability for a single run. The headful flag makes
// the automation observable instead of unattended.
type Factory func(ctx context.Context, headful bool) (Capability, error)
