// Package app boots the shared process state every binary needs.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/config"
	"github.com/d60-Lab/notify-fanout/internal/access"
	"github.com/d60-Lab/notify-fanout/internal/service"
	"github.com/d60-Lab/notify-fanout/pkg/cache"
	"github.com/d60-Lab/notify-fanout/pkg/database"
	"github.com/d60-Lab/notify-fanout/pkg/errtrack"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
	"github.com/d60-Lab/notify-fanout/pkg/tracing"
)

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Services *service.Services

	shutdownTracing func(context.Context) error
}

// New loads configuration and connects everything. handoff may be nil.
func New(ctx context.Context, handoff func(*service.Dispatcher) service.Handoff) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := errtrack.Init(cfg.Sentry); err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// 缓存不可用时直接查库
		logger.Warn("directory cache disabled", zap.Error(err))
		rdb = nil
	}

	processorID := cfg.Fanout.ProcessorID
	if processorID == "" {
		host, _ := os.Hostname()
		processorID = host + "-" + uuid.NewString()[:8]
	}

	svc := service.Build(db, access.NewSQLChecker(db), rdb, cfg, processorID, handoff)
	return &App{Config: cfg, DB: db, Redis: rdb, Services: svc, shutdownTracing: shutdown}, nil
}

// Close flushes telemetry and releases connections.
func (a *App) Close(ctx context.Context) {
	if err := a.shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	errtrack.Flush()
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}
