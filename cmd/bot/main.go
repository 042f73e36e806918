package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cvt-care/support-bot/internal/bot"
	"github.com/cvt-care/support-bot/internal/classifier"
	"github.com/cvt-care/support-bot/internal/engine"
	"github.com/cvt-care/support-bot/internal/models"
	"github.com/cvt-care/support-bot/internal/policy"
	"github.com/cvt-care/support-bot/internal/registry"
	"github.com/cvt-care/support-bot/internal/session"
	"github.com/cvt-care/support-bot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize registry store
	var store registry.Store
	if cfg.Registry.UseInMemory {
		logger.Info("Using in-memory registry")
		store = registry.NewMemoryStore()
	} else {
		logger.Info("Using PostgreSQL registry")
		store, err = registry.NewPostgresStore(registry.DatabaseConfig{
			Host:     cfg.Registry.Host,
			Port:     cfg.Registry.Port,
			User:     cfg.Registry.User,
			Password: cfg.Registry.Password,
			DBName:   cfg.Registry.DBName,
			SSLMode:  cfg.Registry.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize registry", zap.Error(err))
		}
	}
	defer store.Close()

	cache := registry.NewCache(store, cfg.Registry.CacheTTL)

	// Office-hours policy
	workdays, err := cfg.Hours.Weekdays()
	if err != nil {
		logger.Fatal("Invalid workday configuration", zap.Error(err))
	}
	hours, err := policy.NewHours(cfg.Hours.Timezone, cfg.Hours.Open, cfg.Hours.Close, workdays)
	if err != nil {
		logger.Fatal("Invalid office-hours configuration", zap.Error(err))
	}

	staffIDs := make([]models.UserID, 0, len(cfg.Support.StaffIDs))
	for _, id := range cfg.Support.StaffIDs {
		staffIDs = append(staffIDs, models.UserID(id))
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, staffIDs, cfg.Support.RosterTTL, store, cache, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	clf := classifier.New(b.SelfID(), staffIDs, cfg.Support.SpamKeywords)
	sessions := session.NewStore()

	eng := engine.New(cache, clf, b, hours, sessions, b, logger)
	b.SetEngine(eng)

	sweeper := engine.NewSweeper(sessions, b, cfg.Support.SweepInterval, cfg.Support.IdleReclaim, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot.StartKeepAlive(ctx, cfg.Server.Port, logger)
	go sweeper.Run(ctx)

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
