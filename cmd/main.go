package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/internal/baseline"
	"github.com/Alias1177/oisentinel/internal/config"
	"github.com/Alias1177/oisentinel/internal/monitor"
	"github.com/Alias1177/oisentinel/internal/notify"
	"github.com/Alias1177/oisentinel/internal/nse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger

	store, err := baseline.NewStore(baseline.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize baseline store")
	}

	manager, err := baseline.NewManager(store, cfg.BaselineCaptureStart, cfg.BaselineCaptureDeadline)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid baseline capture window")
	}

	mux := notify.NewMultiplexer()
	mux.Add("console", notify.NewConsoleNotifier())
	if cfg.EmailEnabled {
		mux.Add("email", notify.NewEmailNotifier(cfg))
	}
	if cfg.TelegramEnabled {
		tg, err := notify.NewTelegramNotifier(cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Telegram channel disabled: init failed")
		} else {
			mux.Add("telegram", tg)
		}
	}

	client := nse.NewClient(cfg)
	mon := monitor.New(cfg, client, manager, mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	logger.Info().
		Str("symbol", cfg.Symbol).
		Int("strike_range", cfg.StrikeRange).
		Dur("interval", interval).
		Msg("Starting OI monitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func(now time.Time) {
		outcome, err := mon.RunCycle(ctx, now)
		if err != nil {
			logger.Error().Err(err).Msg("Cycle failed")
			return
		}
		logger.Debug().
			Str("status", string(outcome.Status)).
			Int("alerts", outcome.Alerts).
			Msg("Cycle finished")
	}

	runOnce(time.Now())
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down")
			return
		case now := <-ticker.C:
			runOnce(now)
		}
	}
}
