package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banditrecycle/server/api/rest"
	"github.com/banditrecycle/server/audit"
	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/config"
	dbadapter "github.com/banditrecycle/server/db"
	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/scheduler"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/batch"
	"github.com/banditrecycle/server/tracker/setup"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	if cfg.Database.SeedCatalog {
		n, err := model.SeedCatalog(db)
		if err != nil {
			logger.Fatal("seed catalog", zap.Error(err))
		}
		if n > 0 {
			logger.Info("item catalog seeded", zap.Int("items", n))
		}
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	defer cache.Close(c)
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		logger.Fatal("pubsub", zap.Error(err))
	}
	qc := cache.NewQueryCache(c, pubsub, cfg.Cache.QueryTTL, logger)
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	if cfg.Server.Debug {
		go logInvalidations(ctx, qc, logger)
	}

	// ---- Domain services ----
	st := store.New(db, qc, store.Options{WeeklyWindow: cfg.Tracker.WeeklyWindow}, logger)
	setupSvc := setup.NewService(st, c, cfg.Tracker.RequiredItems, cfg.Tracker.DraftTTL, logger)
	batchSvc := batch.NewService(st, c, cfg.Tracker.DraftTTL, logger)
	statsSvc := stats.NewService(st, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddDelay("catalog_warm", time.Second, func(ctx context.Context) {
		if _, err := st.Catalog.List(ctx); err != nil {
			logger.Warn("catalog warm-up failed", zap.Error(err))
		}
	})
	if cfg.Tracker.CatalogRefreshInterval > 0 {
		sched.AddLockedTicker("catalog_refresh", cfg.Tracker.CatalogRefreshInterval, c, func(ctx context.Context) {
			if err := st.Catalog.Refresh(ctx); err != nil {
				logger.Warn("catalog refresh failed", zap.Error(err))
			}
		})
	}

	// ---- HTTP ----
	r := rest.NewRouter(ctx, rest.Deps{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Store:  st,
		Setup:  setupSvc,
		Batch:  batchSvc,
		Stats:  statsSvc,
		Audit:  auditSvc,
		Sched:  sched,
		Server: cfg.Server,
		Sec:    cfg.Security,
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mw.CORS(cfg.Security.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("server", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

// logInvalidations traces query-cache invalidations in debug mode.
func logInvalidations(ctx context.Context, qc *cache.QueryCache, logger *zap.Logger) {
	keys, unsub, err := qc.Subscribe(ctx)
	if err != nil {
		logger.Warn("invalidation subscribe failed", zap.Error(err))
		return
	}
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			logger.Debug("query invalidated", zap.String("concern", k.Concern), zap.String("owner", k.Owner))
		}
	}
}
