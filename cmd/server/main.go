package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/pushfeed/pushfeed/handler"
	"github.com/pushfeed/pushfeed/pkg/config"
	"github.com/pushfeed/pushfeed/pkg/delivery"
	"github.com/pushfeed/pushfeed/pkg/httpserver"
	"github.com/pushfeed/pushfeed/pkg/janitor"
	"github.com/pushfeed/pushfeed/pkg/logger"
	"github.com/pushfeed/pushfeed/pkg/metrics"
	"github.com/pushfeed/pushfeed/pkg/notifier"
	"github.com/pushfeed/pushfeed/pkg/registry"
)

type appConfig struct {
	Server httpserver.Config
	Stream handler.Config

	MaxChannelsPerRecipient int           `env:"MAX_CHANNELS_PER_RECIPIENT" envDefault:"3"`
	RetentionWindow         time.Duration `env:"RETENTION_WINDOW" envDefault:"15m"`
	PruneInterval           time.Duration `env:"PRUNE_INTERVAL" envDefault:"1m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(parseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithService("pushfeed"),
	)
	logger.SetAsDefault(log)

	counters := metrics.New()
	store := notifier.NewMemoryStorage(cfg.RetentionWindow)
	reg := registry.New[delivery.Envelope](cfg.MaxChannelsPerRecipient)
	engine := delivery.NewEngine(store, reg, counters, delivery.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jan := janitor.New(store, counters, cfg.PruneInterval, janitor.WithLogger(log))
	go func() {
		if err := jan.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("janitor exited", logger.Error(err))
		}
	}()

	srv := httpserver.NewFromConfig(cfg.Server, httpserver.WithLogger(log))
	if err := srv.Run(ctx, handler.Router(engine, cfg.Stream)); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
