package main

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	trustedCDNHost      = "tr.rbxcdn.com"
	cdnDomain           = "rbxcdn.com"
	placeholderFilename = "transparent-square-110.png"
)

var (
	avatarSelectors = []string{
		`img.mx-auto.d-block.w-100.h-100`,
		`img[src*="rbxcdn.com"]`,
		`.player-avatar img`,
		`#player_avatar img`,
	}
	placeholderMarkers = []string{"transparent-square", "placeholder"}

	avatarAssetRegex = regexp.MustCompile(`(?i)https://tr\.rbxcdn\.com/[^"'\s]+Avatar[^"'\s]*`)
	anyCDNRegex      = regexp.MustCompile(`(?i)https://tr\.rbxcdn\.com/[^"'\s]+`)
)

// AvatarClassifier decides whether a holder account is still active.
type AvatarClassifier interface {
	Classify(ctx context.Context, s Session, profileURL string) AvatarResult
}

// avatarStrategy is one heuristic layer. ok is false when the layer could not decide.
type avatarStrategy interface {
	Name() string
	Evaluate(ctx context.Context, p *profilePage) (res AvatarResult, ok bool)
}

// profilePage is a loaded profile with its markup read on first use.
type profilePage struct {
	s      Session
	markup *string
}

func (p *profilePage) Markup(ctx context.Context) (string, error) {
	if p.markup != nil {
		return *p.markup, nil
	}
	m, err := p.s.Markup(ctx)
	if err != nil {
		return "", err
	}
	p.markup = &m
	return m, nil
}

// layeredClassifier runs its strategies in order until one decides. Anything
// undecided, including navigation failures, counts as active.
type layeredClassifier struct {
	layers      []avatarStrategy
	loadTimeout time.Duration
	log         zerolog.Logger
}

func newAvatarClassifier(loadTimeout time.Duration, log zerolog.Logger) *layeredClassifier {
	return &layeredClassifier{
		layers: []avatarStrategy{
			selectorLayer{selectors: avatarSelectors},
			markupMatchLayer{name: "markup-avatar", re: avatarAssetRegex},
			markupMatchLayer{name: "markup-cdn", re: anyCDNRegex},
			placeholderLayer{},
		},
		loadTimeout: loadTimeout,
		log:         log,
	}
}

func (c *layeredClassifier) Classify(ctx context.Context, s Session, profileURL string) AvatarResult {
	failOpen := AvatarResult{Valid: true}

	if err := s.Navigate(ctx, profileURL); err != nil {
		c.log.Warn().Err(err).Str("profile", profileURL).Msg("profile unreachable, assuming active")
		return failOpen
	}
	if err := s.WaitFor(ctx, elementPresent("body"), c.loadTimeout); err != nil {
		c.log.Warn().Err(err).Str("profile", profileURL).Msg("profile did not load, assuming active")
		return failOpen
	}

	page := &profilePage{s: s}
	for _, layer := range c.layers {
		res, ok := layer.Evaluate(ctx, page)
		if !ok {
			continue
		}
		c.log.Debug().
			Str("layer", layer.Name()).
			Bool("valid", res.Valid).
			Str("avatar", truncate(res.AvatarURL, 60)).
			Msg("avatar classified")
		return res
	}

	c.log.Debug().Str("profile", profileURL).Msg("avatar status undetermined, assuming active")
	return failOpen
}

// selectorLayer probes known avatar image selectors in priority order.
type selectorLayer struct {
	selectors []string
}

func (selectorLayer) Name() string { return "selector" }

func (l selectorLayer) Evaluate(ctx context.Context, p *profilePage) (AvatarResult, bool) {
	for _, sel := range l.selectors {
		img, err := p.s.FindOne(ctx, sel)
		if err != nil {
			continue
		}
		src, err := img.Attr(ctx, "src")
		if err != nil || src == "" {
			continue
		}
		if isPlaceholder(src) {
			return AvatarResult{Valid: false}, true
		}
		if strings.Contains(src, cdnDomain) {
			return AvatarResult{Valid: true, AvatarURL: src}, true
		}
	}
	return AvatarResult{}, false
}

// markupMatchLayer treats the first match of re in the page markup as the avatar.
type markupMatchLayer struct {
	name string
	re   *regexp.Regexp
}

func (l markupMatchLayer) Name() string { return l.name }

func (l markupMatchLayer) Evaluate(ctx context.Context, p *profilePage) (AvatarResult, bool) {
	markup, err := p.Markup(ctx)
	if err != nil {
		return AvatarResult{}, false
	}
	if m := l.re.FindString(markup); m != "" {
		return AvatarResult{Valid: true, AvatarURL: m}, true
	}
	return AvatarResult{}, false
}

// placeholderLayer marks the account deactivated when only the placeholder image is present.
type placeholderLayer struct{}

func (placeholderLayer) Name() string { return "placeholder" }

func (placeholderLayer) Evaluate(ctx context.Context, p *profilePage) (AvatarResult, bool) {
	markup, err := p.Markup(ctx)
	if err != nil {
		return AvatarResult{}, false
	}
	if strings.Contains(markup, placeholderFilename) && !strings.Contains(markup, trustedCDNHost) {
		return AvatarResult{Valid: false}, true
	}
	return AvatarResult{}, false
}

func isPlaceholder(src string) bool {
	for _, m := range placeholderMarkers {
		if strings.Contains(src, m) {
			return true
		}
	}
	return false
}
