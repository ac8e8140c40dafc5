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

// paginator moves the history table to a given page. The widget only renders a
// sliding window of page numbers, so distant pages are reached from the last
// page by stepping backward.
type paginator struct {
	tableTimeout time.Duration
	log          zerolog.Logger
}

// GotoPage brings the table to target and reports whether it got there.
func (p *paginator) GotoPage(ctx context.Context, s Session, target, total int) bool {
	if p.activePage(ctx, s) == target {
		return true
	}

	if ctl := p.findPageControl(ctx, s, target); ctl != nil {
		err := s.Click(ctx, ctl)
		if err == nil {
			p.waitActive(ctx, s, target)
			p.log.Debug().Int("page", target).Msg("reached page directly")
			return true
		}
		p.log.Warn().Err(err).Int("page", target).Msg("direct page click failed, falling back")
	}

	last := p.findPageControl(ctx, s, total)
	if last == nil {
		p.log.Warn().Int("page", target).Int("total", total).Msg("last page control not found")
		return false
	}
	if err := s.Click(ctx, last); err != nil {
		p.log.Warn().Err(err).Int("total", total).Msg("last page click failed")
		return false
	}
	p.waitActive(ctx, s, total)

	steps := total - target
	p.log.Info().Int("page", target).Int("steps", steps).Msg("stepping back from last page")
	for i := 1; i <= steps; i++ {
		if err := p.Previous(ctx, s, total-i); err != nil {
			p.log.Warn().Err(err).Int("step", i).Msg("stepping back failed")
			return false
		}
	}
	return true
}

// Previous clicks the "previous" control once and waits for expect to become
// the active page. A missing control is an error; a slow re-render only warns.
func (p *paginator) Previous(ctx context.Context, s Session, expect int) error {
	prev, err := s.FindOne(ctx, selPrevControl)
	if err != nil {
		return fmt.Errorf("previous control: %w", err)
	}
	if err := s.Click(ctx, prev); err != nil {
		return fmt.Errorf("click previous: %w", err)
	}
	p.waitActive(ctx, s, expect)
	return nil
}

func (p *paginator) findPageControl(ctx context.Context, s Session, page int) Element {
	controls, err := s.FindAll(ctx, selPageControls)
	if err != nil {
		p.log.Debug().Err(err).Msg("page controls lookup failed")
		return nil
	}
	want := strconv.Itoa(page)
	for _, c := range controls {
		label, err := c.Text(ctx)
		if err != nil {
			continue
		}
		if strings.TrimSpace(label) == want {
			return c
		}
	}
	return nil
}

// activePage returns the highlighted page number, or 0 when it cannot be read.
func (p *paginator) activePage(ctx context.Context, s Session) int {
	el, err := s.FindOne(ctx, selActivePage)
	if err != nil {
		return 0
	}
	label, err := el.Text(ctx)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 0
	}
	return n
}

func (p *paginator) waitActive(ctx context.Context, s Session, page int) {
	err := s.WaitFor(ctx, elementText(selActivePage, strconv.Itoa(page)), p.tableTimeout)
	if err == nil {
		return
	}
	if errors.Is(err, ErrTimeout) {
		p.log.Warn().Int("page", page).Msg("table did not re-render in time")
		return
	}
	p.log.Warn().Err(err).Int("page", page).Msg("waiting for table re-render failed")
}
