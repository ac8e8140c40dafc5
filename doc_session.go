package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const defaultFetchTimeout = 45 * time.Second

// Fetcher returns the raw markup of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ScraperClient holds a shared HTTP client and user agent for static page fetches.
type ScraperClient struct {
	Client    *http.Client
	UserAgent string
}

// NewScraperClient creates a new client optimized for scraping.
func NewScraperClient() *ScraperClient {
	return &ScraperClient{
		Client:    &http.Client{Timeout: defaultFetchTimeout},
		UserAgent: defaultUserAgent,
	}
}

// Fetch performs one GET with the shared client and user agent. It does not retry.
func (sc *ScraperClient) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", sc.UserAgent)

	resp, err := sc.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: received non-200 status: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}
	return string(body), nil
}

// docSession is a Session over static documents parsed with goquery. It cannot
// click, and since the document never changes a wait is decided on the first check.
type docSession struct {
	fetch  Fetcher
	doc    *goquery.Document
	markup string
	log    zerolog.Logger
}

func newDocSession(fetch Fetcher, log zerolog.Logger) *docSession {
	return &docSession{fetch: fetch, log: log}
}

func (s *docSession) Navigate(ctx context.Context, url string) error {
	body, err := s.fetch.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	s.log.Debug().Str("url", url).Int("bytes", len(body)).Msg("page fetched")
	return s.load(body)
}

func (s *docSession) load(markup string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	s.doc = doc
	s.markup = markup
	return nil
}

func (s *docSession) FindOne(ctx context.Context, selector string) (Element, error) {
	els, err := s.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return els[0], nil
}

func (s *docSession) FindAll(_ context.Context, selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, nil
	}
	return wrapSelection(s.doc.Find(selector)), nil
}

func (s *docSession) Click(context.Context, Element) error {
	return fmt.Errorf("click on static document: %w", ErrUnsupported)
}

func (s *docSession) WaitFor(ctx context.Context, cond Condition, _ time.Duration) error {
	ok, err := cond(ctx, s)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	return nil
}

func (s *docSession) Markup(context.Context) (string, error) {
	return s.markup, nil
}

func (s *docSession) Close() error { return nil }

func wrapSelection(sel *goquery.Selection) []Element {
	els := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, docElement{sel: s})
	})
	return els
}

// docElement is a goquery-backed Element.
type docElement struct {
	sel *goquery.Selection
}

func (e docElement) Attr(_ context.Context, name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e docElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e docElement) FindOne(_ context.Context, selector string) (Element, error) {
	found := e.sel.Find(selector)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return docElement{sel: found.First()}, nil
}
