package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	selHolderLink     = `a[href*="/player/"]`
	selIdentifierLink = `a[href*="/uaid/"]`
)

// rowCollector extracts identifiers of rows whose current holder cannot be resolved.
type rowCollector struct {
	baseURL string
	seen    *identifierDeduper
	log     zerolog.Logger
}

// Collect scans the rendered page newest row first and returns the identifiers
// it queued. Each identifier enters the dedupe set here, before any resolution.
func (c *rowCollector) Collect(ctx context.Context, s Session) []Identifier {
	rows, err := s.FindAll(ctx, selTableRows)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not read table rows")
		return nil
	}

	var out []Identifier
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if c.hasActiveHolder(ctx, row) {
			continue
		}

		link, err := row.FindOne(ctx, selIdentifierLink)
		if err != nil {
			continue
		}
		text, err := link.Text(ctx)
		if err != nil {
			c.log.Debug().Err(err).Msg("identifier text unreadable")
			continue
		}
		value := strings.TrimSpace(text)
		if value == "" {
			continue
		}
		if !c.seen.Add(value) {
			c.log.Debug().Str("uaid", value).Msg("already queued")
			continue
		}
		href, _ := link.Attr(ctx, "href")
		out = append(out, Identifier{Value: value, URL: absoluteURL(c.baseURL, href)})
	}
	return out
}

func (c *rowCollector) hasActiveHolder(ctx context.Context, row Element) bool {
	link, err := row.FindOne(ctx, selHolderLink)
	if err != nil {
		return false
	}
	text, err := link.Text(ctx)
	if err != nil {
		return false
	}
	text = strings.TrimSpace(text)
	return text != "" && !isSentinelText(text)
}
