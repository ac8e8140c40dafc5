package main

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Element is a handle to a node of the currently loaded page. Handles are only
// valid until the session navigates or the page re-renders the node.
type Element interface {
	Attr(ctx context.Context, name string) (string, error)
	Text(ctx context.Context) (string, error)
	// FindOne looks up a descendant by CSS selector, failing with ErrNotFound.
	FindOne(ctx context.Context, selector string) (Element, error)
}

// Session is a stateful browsing session modelling one page. It is not safe
// for concurrent use; the scheduler owns it and lends it out per call.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// FindOne fails with ErrNotFound when nothing matches.
	FindOne(ctx context.Context, selector string) (Element, error)
	// FindAll returns every match in document order, possibly none.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// Click activates el through a script click, bypassing overlays.
	Click(ctx context.Context, el Element) error
	// WaitFor blocks until cond holds, failing with ErrTimeout after timeout.
	WaitFor(ctx context.Context, cond Condition, timeout time.Duration) error
	// Markup returns the raw markup of the loaded page.
	Markup(ctx context.Context) (string, error)
	Close() error
}

// Condition is a predicate over the loaded page.
type Condition func(ctx context.Context, s Session) (bool, error)

// elementPresent holds once selector matches at least one node.
func elementPresent(selector string) Condition {
	return func(ctx context.Context, s Session) (bool, error) {
		els, err := s.FindAll(ctx, selector)
		if err != nil {
			return false, err
		}
		return len(els) > 0, nil
	}
}

// elementText holds once the first match of selector has the given trimmed text.
func elementText(selector, want string) Condition {
	return func(ctx context.Context, s Session) (bool, error) {
		el, err := s.FindOne(ctx, selector)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		got, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(got) == want, nil
	}
}

// pollCondition re-evaluates cond every interval until it holds or timeout passes.
func pollCondition(ctx context.Context, s Session, cond Condition, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := cond(ctx, s)
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return errors.Join(ErrTimeout, err)
			}
			return ErrTimeout
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return err
		}
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
