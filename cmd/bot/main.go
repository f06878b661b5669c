package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/tikgrab/tikgrab/internal/bot"
	"github.com/tikgrab/tikgrab/internal/envsetup"
	"github.com/tikgrab/tikgrab/internal/health"
	"github.com/tikgrab/tikgrab/internal/logger"
	"github.com/tikgrab/tikgrab/internal/messages"
	"github.com/tikgrab/tikgrab/internal/ratelimit"
	"github.com/tikgrab/tikgrab/internal/store"
	filestore "github.com/tikgrab/tikgrab/internal/store/file"
	"github.com/tikgrab/tikgrab/internal/store/memory"
	"github.com/tikgrab/tikgrab/internal/store/postgres"
	redisstore "github.com/tikgrab/tikgrab/internal/store/redis"
	"github.com/tikgrab/tikgrab/internal/store/sqlite"
	"github.com/tikgrab/tikgrab/internal/tiktok"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("tikgrab")
	var (
		botToken       = fs.StringLong("bot-token", "", "Telegram bot token")
		botUsername    = fs.StringLong("bot-username", "@tikgrab_bot", "bot username shown in media captions")
		apiBaseURL     = fs.StringLong("api-base-url", "", "content resolution API base URL")
		webhookURL     = fs.StringLong("webhook-url", "", "public webhook URL (empty = long polling)")
		port           = fs.Int64Long("port", 3000, "HTTP port for health, metrics and webhook")
		locale         = fs.StringLong("locale", "", "pin reply language (en|my, empty = autodetect)")
		storeBackend   = fs.StringEnumLong("store", "rate limit store backend", "file", "memory", "sqlite", "postgres", "redis")
		rateLimitFile  = fs.StringLong("rate-limit-file", "rate_limits.json", "path for the file store")
		databaseURL    = fs.StringLong("database-url", "", "DSN for the sqlite/postgres stores")
		redisURL       = fs.StringLong("redis-url", "", "URL for the redis store")
		apiRPS         = fs.Int64Long("api-rps", 0, "cap upstream API calls per second (0 = uncapped)")
		resolveTimeout = fs.DurationLong("resolve-timeout", 45*time.Second, "upstream API timeout")
		helpURL        = fs.StringLong("help-url", "https://telegra.ph/TikTok-Vd-Without-Watermark-01-18", "how-to-use link on /start")
		rateURL        = fs.StringLong("rate-url", "https://t.me/zinko158", "rate-the-bot link on /start")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *botToken == "" {
		if envsetup.NeedsSetup() {
			return errors.New("bot-token is required; run `go run ./cmd/devsetup` to create a .env")
		}
		return errors.New("bot-token is required")
	}
	if *apiBaseURL == "" {
		return errors.New("api-base-url is required")
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	log := logger.New()

	st, err := buildStore(ctx, log, *storeBackend, *rateLimitFile, *databaseURL, *redisURL)
	if err != nil {
		return fmt.Errorf("building rate-limit store: %w", err)
	}
	defer st.Close()
	log.InfoContext(ctx, "rate-limit store ready", "backend", *storeBackend)

	clientOpts := []tiktok.Option{tiktok.WithTimeout(*resolveTimeout)}
	if *apiRPS > 0 {
		clientOpts = append(clientOpts, tiktok.WithThrottle(float64(*apiRPS), int(*apiRPS)))
	}
	client := tiktok.NewClient(*apiBaseURL, clientOpts...)

	tg, err := tgbotapi.NewBotAPI(*botToken)
	if err != nil {
		return fmt.Errorf("creating Telegram session: %w", err)
	}
	log.InfoContext(ctx, "connected to Telegram", "username", tg.Self.UserName)

	mode := "polling"
	if *webhookURL != "" {
		mode = "webhook"
	}
	healthSrv := health.New(int(*port), mode)

	var updates tgbotapi.UpdatesChannel
	if mode == "webhook" {
		updates, err = startWebhook(log, tg, healthSrv, *webhookURL, *botToken)
		if err != nil {
			return err
		}
	} else {
		cfg := tgbotapi.NewUpdate(0)
		cfg.Timeout = 30
		updates = tg.GetUpdatesChan(cfg)
	}

	b := bot.New(
		bot.NewLogger(log),
		tg,
		client,
		ratelimit.New(log, st),
		messages.New(messages.Locale(*locale)),
		bot.Config{
			Username: *botUsername,
			HelpURL:  *helpURL,
			RateURL:  *rateURL,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig)
		cancel(errors.New("signal received"))
	}()

	var eg errgroup.Group
	eg.Go(func() error {
		log.InfoContext(ctx, "starting HTTP server", "port", *port, "mode", mode)
		return healthSrv.Start()
	})
	eg.Go(func() error {
		return b.Run(ctx, updates)
	})
	eg.Go(func() error {
		<-ctx.Done()
		tg.StopReceivingUpdates()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return healthSrv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func buildStore(ctx context.Context, log *slog.Logger, backend, filePath, databaseURL, redisURL string) (store.Store, error) {
	switch backend {
	case "file":
		return filestore.New(log, filePath), nil
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if databaseURL == "" {
			databaseURL = "tikgrab.db"
		}
		return sqlite.New(ctx, databaseURL)
	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("database-url is required for the postgres store")
		}
		return postgres.New(ctx, databaseURL)
	case "redis":
		if redisURL == "" {
			return nil, errors.New("redis-url is required for the redis store")
		}
		return redisstore.New(ctx, redisURL)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// startWebhook registers the webhook with Telegram and mounts the
// receiver on the shared HTTP server.
func startWebhook(log *slog.Logger, tg *tgbotapi.BotAPI, healthSrv *health.Server, webhookURL, token string) (tgbotapi.UpdatesChannel, error) {
	path := "/bot" + token

	wh, err := tgbotapi.NewWebhook(webhookURL + path)
	if err != nil {
		return nil, fmt.Errorf("building webhook config: %w", err)
	}
	if _, err := tg.Request(wh); err != nil {
		return nil, fmt.Errorf("setting webhook: %w", err)
	}
	log.Info("webhook set", "url", webhookURL+path)

	updates := make(chan tgbotapi.Update, 100)
	healthSrv.Handle("POST "+path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := tg.HandleUpdate(r)
		if err != nil {
			log.Warn("rejecting webhook request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		updates <- *update
	}))
	return updates, nil
}
