package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestCollectSkipsResolvableHoldersNewestFirst(t *testing.T) {
	b := newFakeBrowser()
	item := b.addItem("7", &fakeTable{
		title: "Dominus",
		total: 1,
		pages: map[int][]fakeRow{1: {
			{uaid: "U1", holder: "alice"},
			{uaid: "U2"},
			{uaid: "U3", holder: "Deleted"},
			{},
			{uaid: "U4", holder: "[Hidden]"},
		}},
	})
	ctx := context.Background()
	if err := testNavigator().Open(ctx, b, item); err != nil {
		t.Fatalf("open: %v", err)
	}

	seen := newIdentifierDeduper()
	c := &rowCollector{baseURL: testBase, seen: seen, log: zerolog.Nop()}

	got := c.Collect(ctx, b)
	want := []string{"U4", "U3", "U2"}
	if len(got) != len(want) {
		t.Fatalf("collected %+v, want values %v", got, want)
	}
	for i, id := range got {
		if id.Value != want[i] {
			t.Fatalf("identifier %d = %q, want %q", i, id.Value, want[i])
		}
		if id.URL != uaidURL(want[i]) {
			t.Fatalf("identifier %d url = %q, want %q", i, id.URL, uaidURL(want[i]))
		}
	}
	if seen.Len() != 3 {
		t.Fatalf("dedupe set size = %d, want 3", seen.Len())
	}

	// Rescanning the same render queues nothing new.
	if again := c.Collect(ctx, b); len(again) != 0 {
		t.Fatalf("rescan collected %+v", again)
	}
	if seen.Len() != 3 {
		t.Fatalf("dedupe set size after rescan = %d, want 3", seen.Len())
	}
}

func TestNavigatorReadsTitleAndTotalPages(t *testing.T) {
	b := newFakeBrowser()
	item := b.addItem("9", activeTable(37))
	ctx := context.Background()
	nav := testNavigator()

	if err := nav.Open(ctx, b, item); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := nav.Title(ctx, b); got != "Test Item" {
		t.Fatalf("title = %q", got)
	}
	if got := nav.TotalPages(ctx, b); got != 37 {
		t.Fatalf("total pages = %d, want 37", got)
	}
}

func TestNavigatorMissingHistoryTab(t *testing.T) {
	b := newFakeBrowser()
	b.noTab = true
	item := b.addItem("9", activeTable(3))

	err := testNavigator().Open(context.Background(), b, item)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("open err = %v, want ErrNotFound", err)
	}
}

func TestNavigatorSinglePageWithoutPagination(t *testing.T) {
	s := newDocSession(nil, zerolog.Nop())
	if err := s.load(`<html><body><table id="all_copies_table"><tbody><tr><td>x</td></tr></tbody></table></body></html>`); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := testNavigator().TotalPages(context.Background(), s); got != 1 {
		t.Fatalf("total pages = %d, want 1", got)
	}
}

func TestIdentifierDeduper(t *testing.T) {
	d := newIdentifierDeduper()
	if !d.Add("a") {
		t.Fatalf("first Add(a) = false")
	}
	if d.Add("a") {
		t.Fatalf("second Add(a) = true")
	}
	if !d.Add("b") {
		t.Fatalf("Add(b) = false")
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
}
