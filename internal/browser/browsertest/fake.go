// Package browsertest provides a scriptable in-memory Capability for testing
// the extraction engine without a live browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/halkwu/opal-card/internal/browser"
)

// State is the fake page the capability reads from. Hooks mutate it to
// simulate navigation, form submission, and period selection.
type State struct {
	URL       string
	Texts     map[string]string            // selector -> text of first match
	TextLists map[string][]string          // selector -> text of every match
	Attrs     map[string]map[string]string // selector -> attribute -> value
	Counts    map[string]int               // selector -> match count (overrides inference)
	Visible   map[string]bool              // selector -> visibility
	Responses map[string]bool              // url fragment -> a response completed
}

// SetText records a selector's text and marks it visible.
func (s *State) SetText(selector, text string) {
	if s.Texts == nil {
		s.Texts = make(map[string]string)
	}
	if s.Visible == nil {
		s.Visible = make(map[string]bool)
	}

	s.Texts[selector] = text
	s.Visible[selector] = true
}

var _ browser.Capability = (*Fake)(nil)

// Fake is a Capability backed by a State value. All methods are safe for the
// concurrent waits the login race issues. Waits poll the state so a hook
// fired by Click can satisfy a wait already in flight.
type Fake struct {
	mu    sync.Mutex
	state State

	// OnNavigate, OnClick, and OnSelect run with the state lock held and must
	// only mutate the passed State.
	OnNavigate map[string]func(*State)
	OnClick    map[string]func(*State)
	OnSelect   func(s *State, selector, value string)

	// Errs forces an error for a selector across all operations.
	Errs map[string]error

	closeCount int
}

func New(initial State) *Fake {
	return &Fake{state: initial}
}

// Mutate runs fn against the fake's state under lock.
func (f *Fake) Mutate(fn func(*State)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(&f.state)
}

// CloseCount reports how many times Close has been called.
func (f *Fake) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closeCount
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.URL = url
	if hook, ok := f.OnNavigate[url]; ok {
		hook(&f.state)
	}

	return nil
}

func (f *Fake) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return f.poll(ctx, timeout, fmt.Sprintf("wait for %q", selector), func(s *State) bool {
		return s.Visible[selector]
	})
}

func (f *Fake) WaitURLPrefix(ctx context.Context, prefix string, timeout time.Duration) error {
	return f.poll(ctx, timeout, fmt.Sprintf("wait for url %s*", prefix), func(s *State) bool {
		return strings.HasPrefix(s.URL, prefix)
	})
}

func (f *Fake) WaitResponse(ctx context.Context, urlFragment string, timeout time.Duration) error {
	return f.poll(ctx, timeout, fmt.Sprintf("wait for response %q", urlFragment), func(s *State) bool {
		return s.Responses[urlFragment]
	})
}

func (f *Fake) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return err
	}

	if hook, ok := f.OnClick[selector]; ok {
		hook(&f.state)
	}

	return nil
}

func (f *Fake) Fill(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return err
	}

	if f.state.Texts == nil {
		f.state.Texts = make(map[string]string)
	}
	f.state.Texts[selector] = value

	return nil
}

func (f *Fake) SelectOption(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return err
	}

	if f.OnSelect != nil {
		f.OnSelect(&f.state, selector, value)
	}

	return nil
}

func (f *Fake) Text(_ context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return "", err
	}

	return strings.TrimSpace(f.state.Texts[selector]), nil
}

func (f *Fake) Texts(_ context.Context, selector string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return nil, err
	}

	return f.state.TextLists[selector], nil
}

func (f *Fake) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return "", false, err
	}

	attrs, ok := f.state.Attrs[selector]
	if !ok {
		return "", false, nil
	}

	value, ok := attrs[name]

	return value, ok, nil
}

func (f *Fake) Count(_ context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errs[selector]; err != nil {
		return 0, err
	}

	if count, ok := f.state.Counts[selector]; ok {
		return count, nil
	}

	if list, ok := f.state.TextLists[selector]; ok {
		return len(list), nil
	}

	if _, ok := f.state.Texts[selector]; ok {
		return 1, nil
	}

	return 0, nil
}

func (f *Fake) CurrentURL(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state.URL, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closeCount++

	return nil
}

func (f *Fake) poll(ctx context.Context, timeout time.Duration, desc string, cond func(*State) bool) error {
	deadline := time.Now().Add(timeout)

	for {
		f.mu.Lock()
		ok := cond(&f.state)
		f.mu.Unlock()

		if ok {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s: %w", desc, browser.ErrWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
}
