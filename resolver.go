package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ownerResolver finds the first active prior holder listed on an identifier page.
type ownerResolver struct {
	baseURL     string
	loadTimeout time.Duration
	checkDelay  time.Duration
	classifier  AvatarClassifier
	log         zerolog.Logger
}

// Resolve returns the first candidate classified as active, or nil when there
// is none. Candidates after the first active one are never classified.
func (r *ownerResolver) Resolve(ctx context.Context, s Session, id Identifier) (*ResolvedOwner, error) {
	candidates, err := r.candidates(ctx, s, id)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("uaid", id.Value).Int("candidates", len(candidates)).Msg("prior holders listed")

	for i, c := range candidates {
		if i > 0 {
			if err := sleepCtx(ctx, r.checkDelay); err != nil {
				return nil, err
			}
		}
		res := r.classifier.Classify(ctx, s, c.ProfileURL)
		if !res.Valid {
			r.log.Debug().Str("username", c.Username).Msg("holder deactivated")
			continue
		}
		return &ResolvedOwner{
			Username:   c.Username,
			ProfileURL: c.ProfileURL,
			AvatarURL:  res.AvatarURL,
		}, nil
	}
	return nil, nil
}

// candidates lists holder links in page order, unique by username, sentinel labels dropped.
func (r *ownerResolver) candidates(ctx context.Context, s Session, id Identifier) ([]CandidateOwner, error) {
	if err := s.Navigate(ctx, id.URL); err != nil {
		return nil, err
	}
	if err := s.WaitFor(ctx, elementPresent("body"), r.loadTimeout); err != nil {
		return nil, fmt.Errorf("identifier page: %w", err)
	}

	links, err := s.FindAll(ctx, selHolderLink)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(links))
	var out []CandidateOwner
	for _, l := range links {
		text, err := l.Text(ctx)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(text)
		if name == "" || isSentinelText(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		href, _ := l.Attr(ctx, "href")
		out = append(out, CandidateOwner{Username: name, ProfileURL: absoluteURL(r.baseURL, href)})
	}
	return out, nil
}
