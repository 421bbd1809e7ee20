package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/database"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/middleware"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/templates"
	pkgredis "github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	db        *gorm.DB
	mongo     *mongo.Client
	rc        *pkgredis.Client
	templates *templates.Service
	logger    *zap.Logger
}

// New initializes the application: config → MySQL → Mongo → Redis → routes.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt_secret is empty, write endpoints are open")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	mc, mdb, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(corsMiddleware(cfg))

	app := &App{
		cfg:       cfg,
		router:    router,
		db:        db,
		mongo:     mc,
		rc:        rc,
		templates: templates.NewService(templates.NewMongoRepository(mdb, cfg.Mongo), logger.Named("templates")),
		logger:    logger,
	}
	app.registerRoutes()
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// MigrateLegacy folds per-template legacy documents into the template document.
func (a *App) MigrateLegacy(ctx context.Context) (int, error) {
	return a.templates.Migrate(ctx)
}

// Shutdown closes the store connections.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.logger.Warn("mongo disconnect failed", zap.Error(err))
	}
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

var processStart = time.Now()
