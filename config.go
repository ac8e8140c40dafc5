package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultItemIDs = "439946249,180660043,1016143686,98346834,1191135761,250395631,416846000,398676450,42211680"

// Conf is a namespaced view over environment variables.
type Conf struct {
	prefix string
	log    zerolog.Logger
}

func newConf(log zerolog.Logger) Conf { return Conf{log: log} }

// Prefix returns a child view, e.g. c.Prefix("DISCORD_").
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, log: c.log} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) raw(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// MayString returns the value or def if missing/empty.
func (c Conf) MayString(key, def string) string {
	if v := c.raw(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing; logs and returns def if invalid.
func (c Conf) MayInt(key string, def int) int {
	s := c.raw(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		c.log.Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
		return def
	}
	return v
}

// MayDuration returns the value or def if missing; logs and returns def if invalid.
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.raw(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		c.log.Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
		return def
	}
	return d
}

// Config is everything read once at startup.
type Config struct {
	WebhookURL        string
	ItemIDs           []string
	Port              string
	PagesPerBatch     int
	SiteBaseURL       string
	PageLoadTimeout   time.Duration
	TableWaitTimeout  time.Duration
	BetweenChecksWait time.Duration
	ResolveWith       string
	ChromeRemoteURL   string
	DiscordBotToken   string
	DiscordChannelID  string
	LedgerPath        string
}

func loadConfig(c Conf) Config {
	cfg := Config{
		WebhookURL:        c.MayString("WEBHOOK_URL", ""),
		ItemIDs:           parseItemIDs(c.MayString("ITEM_IDS", defaultItemIDs)),
		Port:              c.MayString("PORT", "3000"),
		PagesPerBatch:     c.MayInt("PAGES_PER_BATCH", 10),
		SiteBaseURL:       strings.TrimRight(c.MayString("SITE_BASE_URL", "https://www.rolimons.com"), "/"),
		PageLoadTimeout:   c.MayDuration("PAGE_LOAD_TIMEOUT", 15*time.Second),
		TableWaitTimeout:  c.MayDuration("TABLE_WAIT_TIMEOUT", 10*time.Second),
		BetweenChecksWait: c.MayDuration("BETWEEN_CHECKS_WAIT", 500*time.Millisecond),
		ResolveWith:       strings.ToLower(c.MayString("RESOLVE_WITH", "browser")),
		ChromeRemoteURL:   c.MayString("CHROME_REMOTE_URL", ""),
		LedgerPath:        c.MayString("LEDGER_DB_PATH", ""),
	}

	discord := c.Prefix("DISCORD_")
	cfg.DiscordBotToken = discord.MayString("BOT_TOKEN", "")
	cfg.DiscordChannelID = discord.MayString("CHANNEL_ID", "")

	if cfg.PagesPerBatch < 1 {
		c.log.Warn().Int("value", cfg.PagesPerBatch).Msg("PAGES_PER_BATCH below 1; using 1")
		cfg.PagesPerBatch = 1
	}
	if cfg.ResolveWith != "browser" && cfg.ResolveWith != "http" {
		c.log.Warn().Str("value", cfg.ResolveWith).Msg("unknown RESOLVE_WITH; using browser")
		cfg.ResolveWith = "browser"
	}
	return cfg
}

// parseItemIDs splits a comma-separated list, keeps numeric entries in order and does not dedupe.
func parseItemIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if !isDigits(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
