package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	selHistoryTab   = `a[href="#all_copies_table_container"]`
	selTableRows    = `#all_copies_table tbody tr`
	selPaginate     = `#all_copies_table_paginate`
	selPageControls = `#all_copies_table_paginate a.page-link[data-dt-idx]`
	selPrevControl  = `#all_copies_table_paginate a.page-link[data-dt-idx="0"]`
	selActivePage   = `#all_copies_table_paginate .active a.page-link`
	selItemTitle    = `h1.page_title`
)

// pageNavigator opens an item's detail page with the full-history table showing.
type pageNavigator struct {
	loadTimeout  time.Duration
	tableTimeout time.Duration
	log          zerolog.Logger
}

// Open navigates to the item page, activates the history tab and waits for the
// first table render. A missing tab or table is returned as an error.
func (n *pageNavigator) Open(ctx context.Context, s Session, item Item) error {
	if err := s.Navigate(ctx, item.DetailURL); err != nil {
		return err
	}

	tab, err := s.FindOne(ctx, selHistoryTab)
	if err != nil {
		return fmt.Errorf("history tab: %w", err)
	}
	if err := s.Click(ctx, tab); err != nil {
		return fmt.Errorf("activate history tab: %w", err)
	}
	if err := s.WaitFor(ctx, elementPresent(selTableRows), n.loadTimeout); err != nil {
		return fmt.Errorf("history table: %w", err)
	}
	return nil
}

// Title returns the item title shown on the detail page, or "" if absent.
func (n *pageNavigator) Title(ctx context.Context, s Session) string {
	el, err := s.FindOne(ctx, selItemTitle)
	if err != nil {
		return ""
	}
	t, err := el.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(t)
}

// TotalPages returns the highest numeric page label rendered by the pagination
// widget, or 1 when there is none.
func (n *pageNavigator) TotalPages(ctx context.Context, s Session) int {
	if err := s.WaitFor(ctx, elementPresent(selPaginate), n.tableTimeout); err != nil {
		if !errors.Is(err, ErrTimeout) {
			n.log.Warn().Err(err).Msg("waiting for pagination failed")
		}
		n.log.Info().Msg("no pagination rendered, assuming 1 page")
		return 1
	}

	controls, err := s.FindAll(ctx, selPageControls)
	if err != nil {
		n.log.Warn().Err(err).Msg("could not read page controls, assuming 1 page")
		return 1
	}

	last := 1
	for _, c := range controls {
		label, err := c.Text(ctx)
		if err != nil {
			continue
		}
		if p, err := strconv.Atoi(strings.TrimSpace(label)); err == nil && p > last {
			last = p
		}
	}
	n.log.Info().Int("total_pages", last).Msg("determined total pages")
	return last
}
