package main

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// StatusView is the read-only slice of run state exposed to the status endpoint.
type StatusView interface {
	Scraping() bool
	TotalFound() int64
	ProcessedUAIDs() int
}

// runContext carries the mutable state of one process run. The pipeline
// writes it; everything else reads it through StatusView.
type runContext struct {
	id       uuid.UUID
	seen     *identifierDeduper
	found    atomic.Int64
	scraping atomic.Bool
}

func newRunContext() *runContext {
	return &runContext{
		id:   uuid.New(),
		seen: newIdentifierDeduper(),
	}
}

func (r *runContext) Scraping() bool      { return r.scraping.Load() }
func (r *runContext) TotalFound() int64   { return r.found.Load() }
func (r *runContext) ProcessedUAIDs() int { return r.seen.Len() }

var _ StatusView = (*runContext)(nil)
