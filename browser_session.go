package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	browserOpTimeout = 45 * time.Second
	waitPollInterval = 200 * time.Millisecond

	clickJS = `function() { this.click(); }`
	textJS  = `function() { return (this.innerText || this.textContent || ""); }`
)

// browserSession drives a single headless Chrome tab over the DevTools protocol.
type browserSession struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	log         zerolog.Logger
}

// newBrowserSession launches (or attaches to) Chrome and opens one tab.
// Any failure is reported as ErrSessionInit.
func newBrowserSession(remoteURL string, log zerolog.Logger) (*browserSession, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if remoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), remoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-web-security", true),
			chromedp.Flag("disable-features", "VizDisplayCompositor"),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(1920, 1080),
			chromedp.UserAgent(defaultUserAgent),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	tab, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	}))

	// The first Run starts the browser.
	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrSessionInit, err)
	}

	log.Info().Bool("remote", remoteURL != "").Msg("browser session initialized")
	return &browserSession{
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		log:         log,
	}, nil
}

// run executes actions on the tab, bounded by browserOpTimeout.
func (s *browserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel, err := s.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// opContext derives the context for one DevTools step from the tab. A done ctx
// keeps the step from starting but never interrupts one already running.
func (s *browserSession) opContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	opCtx, cancel := context.WithTimeout(s.tab, browserOpTimeout)
	return opCtx, cancel, nil
}

func (s *browserSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *browserSession) query(ctx context.Context, selector string, from *cdp.Node) ([]*cdp.Node, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return nodes, nil
}

func (s *browserSession) FindOne(ctx context.Context, selector string) (Element, error) {
	nodes, err := s.query(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return &browserElement{s: s, node: nodes[0]}, nil
}

func (s *browserSession) FindAll(ctx context.Context, selector string) ([]Element, error) {
	nodes, err := s.query(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &browserElement{s: s, node: n})
	}
	return els, nil
}

func (s *browserSession) Click(ctx context.Context, el Element) error {
	be, ok := el.(*browserElement)
	if !ok {
		return fmt.Errorf("click foreign element %T: %w", el, ErrUnsupported)
	}
	return s.callOnNode(ctx, be.node, clickJS, nil)
}

func (s *browserSession) WaitFor(ctx context.Context, cond Condition, timeout time.Duration) error {
	return pollCondition(ctx, s, cond, timeout, waitPollInterval)
}

func (s *browserSession) Markup(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page markup: %w", err)
	}
	return html, nil
}

// Close tears down the tab and the browser. Safe to call more than once.
func (s *browserSession) Close() error {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
		s.log.Info().Msg("browser session closed")
	})
	return nil
}

// callOnNode runs fn with the node bound to `this` and decodes its return value into res.
func (s *browserSession) callOnNode(ctx context.Context, node *cdp.Node, fn string, res any) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		ret, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		if res == nil || ret == nil || len(ret.Value) == 0 {
			return nil
		}
		return json.Unmarshal(ret.Value, res)
	}))
}

type browserElement struct {
	s    *browserSession
	node *cdp.Node
}

func (e *browserElement) Attr(_ context.Context, name string) (string, error) {
	v, _ := e.node.Attribute(name)
	return v, nil
}

func (e *browserElement) Text(ctx context.Context) (string, error) {
	var txt string
	if err := e.s.callOnNode(ctx, e.node, textJS, &txt); err != nil {
		return "", fmt.Errorf("element text: %w", err)
	}
	return txt, nil
}

func (e *browserElement) FindOne(ctx context.Context, selector string) (Element, error) {
	nodes, err := e.s.query(ctx, selector, e.node)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return &browserElement{s: e.s, node: nodes[0]}, nil
}
