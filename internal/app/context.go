package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/presence"
	"github.com/oggyb/muzz-match/internal/push"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// process-scoped runtime state, closed at shutdown
	Presence *presence.Registry
	Pushes   *push.Dispatcher
}

// New creates a new AppContext
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	logger *slog.Logger,
	registry *presence.Registry,
	pushes *push.Dispatcher,
) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Presence:   registry,
		Pushes:     pushes,
	}
}
