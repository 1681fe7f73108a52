package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/cache"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/photostore"
)

// AppContext holds shared dependencies (DB, Redis, photo store, bus, logger).
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Photos     photostore.Store
	Bus        *events.Bus
	Logger     *slog.Logger
}

// New creates a new AppContext.
func New(db *gorm.DB, rdb *cache.RedisCache, photos photostore.Store, bus *events.Bus, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Photos:     photos,
		Bus:        bus,
		Logger:     logger,
	}
}
