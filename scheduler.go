package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// planBatches splits pages [1, total] into windows of at most k pages, highest first.
func planBatches(total, k int) []PageBatch {
	if k < 1 {
		k = 1
	}
	var out []PageBatch
	for cur := total; cur >= 1; {
		start := max(1, cur-k+1)
		out = append(out, PageBatch{StartPage: start, EndPage: cur})
		cur = start - 1
	}
	return out
}

// batchScheduler drives the whole run: items in order, batches high to low,
// collection of every page in a batch before any of its identifiers is resolved.
type batchScheduler struct {
	rc        *runContext
	browser   Session // item pages; needs clicks
	lookup    Session // identifier and profile pages
	nav       *pageNavigator
	pager     *paginator
	collector *rowCollector
	resolver  *ownerResolver
	notify    *dispatcher
	ledger    Ledger
	batchSize int
	now       func() time.Time
	log       zerolog.Logger
}

// Run processes items sequentially. It returns early only when ctx is cancelled.
func (b *batchScheduler) Run(ctx context.Context, items []Item) {
	b.rc.scraping.Store(true)
	defer b.rc.scraping.Store(false)

	b.log.Info().Int("items", len(items)).Msg("starting run")
	for _, item := range items {
		if ctx.Err() != nil {
			b.log.Warn().Msg("run cancelled")
			return
		}
		b.scrapeItem(ctx, item)
	}
	b.log.Info().Int64("total_found", b.rc.TotalFound()).Msg("all items done")
}

func (b *batchScheduler) scrapeItem(ctx context.Context, item Item) {
	log := b.log.With().Str("item", item.ID).Logger()
	log.Info().Str("url", item.DetailURL).Msg("scraping item")

	if err := b.nav.Open(ctx, b.browser, item); err != nil {
		log.Warn().Err(err).Msg("could not load history table, skipping item")
		return
	}
	if title := b.nav.Title(ctx, b.browser); title != "" {
		log.Info().Str("title", title).Msg("item page opened")
	}

	total := b.nav.TotalPages(ctx, b.browser)
	batches := planBatches(total, b.batchSize)
	log.Info().Int("pages", total).Int("batch_size", b.batchSize).Int("batches", len(batches)).Msg("planned batches")

	for n, batch := range batches {
		if ctx.Err() != nil {
			return
		}
		blog := log.With().Int("batch", n+1).Logger()
		blog.Info().Msgf("Batch %d: pages %d -> %d", n+1, batch.EndPage, batch.StartPage)

		ids := b.collectBatch(ctx, item, batch, total, blog)
		if len(ids) == 0 {
			blog.Info().Msg("no deleted or hidden holders in this batch")
			continue
		}
		b.resolveBatch(ctx, item, ids, blog)
	}
	log.Info().Int64("total_found", b.rc.TotalFound()).Msg("finished item")
}

// collectBatch resets pagination by reopening the item page, moves to the
// batch's highest page and steps back to its lowest.
func (b *batchScheduler) collectBatch(ctx context.Context, item Item, batch PageBatch, total int, log zerolog.Logger) []Identifier {
	if err := b.nav.Open(ctx, b.browser, item); err != nil {
		log.Warn().Err(err).Msg("could not reopen item page")
		return nil
	}
	if batch.EndPage > 1 && !b.pager.GotoPage(ctx, b.browser, batch.EndPage, total) {
		log.Warn().Int("page", batch.EndPage).Msg("could not reach batch start page")
		return nil
	}

	var ids []Identifier
	for page := batch.EndPage; page >= batch.StartPage; page-- {
		if page != batch.EndPage {
			if err := b.pager.Previous(ctx, b.browser, page); err != nil {
				log.Warn().Err(err).Int("page", page).Msg("stepping back failed, ending batch collection")
				break
			}
		}
		got := b.collector.Collect(ctx, b.browser)
		ids = append(ids, got...)
		log.Info().Int("page", page).Int("uaids", len(got)).Int("batch_total", len(ids)).Msg("page collected")
	}
	return ids
}

func (b *batchScheduler) resolveBatch(ctx context.Context, item Item, ids []Identifier, log zerolog.Logger) {
	log.Info().Int("uaids", len(ids)).Msg("resolving batch")
	for i, id := range ids {
		if ctx.Err() != nil {
			return
		}
		ilog := log.With().Str("uaid", id.Value).Logger()
		ilog.Info().Msgf("[%d/%d] resolving", i+1, len(ids))

		owner, err := b.resolver.Resolve(ctx, b.lookup, id)
		if err != nil {
			ilog.Warn().Err(err).Msg("resolution failed")
			continue
		}
		if owner == nil {
			ilog.Info().Msg("no valid owner")
			continue
		}

		ilog.Info().Str("username", owner.Username).Msg("found previous owner")
		b.notify.Send(ctx, *owner)
		b.rc.found.Add(1)

		f := Finding{
			ItemID:     item.ID,
			Identifier: id.Value,
			Username:   owner.Username,
			ProfileURL: owner.ProfileURL,
			AvatarURL:  owner.AvatarURL,
			FoundAt:    b.now().UTC().Format(time.RFC3339),
		}
		if err := b.ledger.Record(ctx, b.rc.id.String(), f); err != nil {
			ilog.Warn().Err(err).Msg("could not record finding")
		}
	}
}
