package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/cache"
	"github.com/oggyb/pahilobhet/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, tokens, logger, config).
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Tokens     *auth.TokenIssuer
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, tokens *auth.TokenIssuer, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Tokens:     tokens,
		Logger:     logger,
	}
}
