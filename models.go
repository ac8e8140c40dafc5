package main

import (
	"fmt"
	"strings"
)

// Item is one configured catalogue entry whose ownership table gets crawled.
type Item struct {
	ID        string
	DetailURL string
}

// newItem builds the detail page URL for an item id on the tracking site.
func newItem(baseURL, id string) Item {
	return Item{
		ID:        id,
		DetailURL: fmt.Sprintf("%s/item/%s", strings.TrimRight(baseURL, "/"), id),
	}
}

// PageBatch is a contiguous window of table pages, StartPage <= EndPage.
type PageBatch struct {
	StartPage int
	EndPage   int
}

// Identifier is a row token (UAID) and the detail page that lists its prior holders.
type Identifier struct {
	Value string
	URL   string
}

// CandidateOwner is a prior holder found on an identifier's detail page.
type CandidateOwner struct {
	Username   string
	ProfileURL string
}

// AvatarResult is the outcome of classifying one holder profile.
type AvatarResult struct {
	Valid     bool
	AvatarURL string // empty when no avatar could be resolved
}

// ResolvedOwner is the first active prior holder of an identifier.
type ResolvedOwner struct {
	Username       string
	ProfileURL     string
	AvatarURL      string
	ExternalHandle string // reserved for a later enrichment step, always empty for now
}

// Finding is one notified owner as recorded in the findings ledger.
type Finding struct {
	ItemID     string `json:"itemId"`
	Identifier string `json:"uaid"`
	Username   string `json:"username"`
	ProfileURL string `json:"profileUrl"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	FoundAt    string `json:"foundAt"`
}
