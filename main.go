package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load()

	root := newLogger(LogOptions{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
	rc := newRunContext()
	root = root.With().Str("run_id", rc.id.String()).Logger()

	// .env is optional.
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		root.Warn().Err(envErr).Msg("could not load .env")
	}

	cfg := loadConfig(newConf(root))
	os.Exit(run(cfg, rc, root))
}

// run wires the pipeline and returns the process exit code.
func run(cfg Config, rc *runContext, root zerolog.Logger) int {
	log := named(root, "main")
	log.Info().Strs("items", cfg.ItemIDs).Msg("UAID previous owner scraper starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := openSink(cfg, named(root, "notify"))
	if err != nil {
		log.Error().Err(err).Msg("no notification sink")
		return 1
	}
	defer closeSink()

	ledger, err := openFindingsLedger(cfg.LedgerPath, named(root, "ledger"))
	if err != nil {
		log.Error().Err(err).Str("path", cfg.LedgerPath).Msg("could not open findings ledger")
		return 1
	}
	defer ledger.Close()

	statusLog := named(root, "status")
	status := newStatusServer(cfg.Port, newStatusRouter(rc, ledger, time.Now, statusLog), statusLog)
	go func() {
		if err := status.Run(); err != nil {
			statusLog.Error().Err(err).Msg("status server stopped")
		}
	}()

	browser, err := newBrowserSession(cfg.ChromeRemoteURL, named(root, "session"))
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize browser")
		shutdownStatus(status, log)
		return 1
	}
	defer browser.Close()

	var lookup Session = browser
	if cfg.ResolveWith == "http" {
		lookup = newDocSession(NewScraperClient(), named(root, "session"))
	}

	sched := &batchScheduler{
		rc:      rc,
		browser: browser,
		lookup:  lookup,
		nav: &pageNavigator{
			loadTimeout:  cfg.PageLoadTimeout,
			tableTimeout: cfg.TableWaitTimeout,
			log:          named(root, "scheduler"),
		},
		pager: &paginator{tableTimeout: cfg.TableWaitTimeout, log: named(root, "paginator")},
		collector: &rowCollector{
			baseURL: cfg.SiteBaseURL,
			seen:    rc.seen,
			log:     named(root, "collector"),
		},
		resolver: &ownerResolver{
			baseURL:     cfg.SiteBaseURL,
			loadTimeout: cfg.PageLoadTimeout,
			checkDelay:  cfg.BetweenChecksWait,
			classifier:  newAvatarClassifier(cfg.PageLoadTimeout, named(root, "avatar")),
			log:         named(root, "resolver"),
		},
		notify:    newDispatcher(sink, named(root, "notify")),
		ledger:    ledger,
		batchSize: cfg.PagesPerBatch,
		now:       time.Now,
		log:       named(root, "scheduler"),
	}

	items := make([]Item, 0, len(cfg.ItemIDs))
	for _, id := range cfg.ItemIDs {
		items = append(items, newItem(cfg.SiteBaseURL, id))
	}
	sched.Run(ctx, items)

	browser.Close()
	log.Info().
		Int64("total_found", rc.TotalFound()).
		Int("processed_uaids", rc.ProcessedUAIDs()).
		Msg("scraping complete, status server still running")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	shutdownStatus(status, log)
	return 0
}

// openSink picks the bot sink when a bot is configured, else the webhook.
func openSink(cfg Config, log zerolog.Logger) (Sink, func(), error) {
	if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		bot, err := newBotSink(cfg.DiscordBotToken, cfg.DiscordChannelID, log)
		if err != nil {
			return nil, nil, err
		}
		return bot, func() { bot.Close() }, nil
	}
	if cfg.WebhookURL == "" {
		return nil, nil, errors.New("WEBHOOK_URL is not set")
	}
	log.Info().Msg("using webhook sink")
	return newWebhookSink(cfg.WebhookURL), func() {}, nil
}

// openFindingsLedger opens the sqlite ledger at path. An empty path disables it.
func openFindingsLedger(path string, log zerolog.Logger) (Ledger, error) {
	if path == "" {
		return noLedger{}, nil
	}
	l, err := openLedger(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("findings ledger open")
	return l, nil
}

func shutdownStatus(s *statusServer, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("status server shutdown")
	}
}
