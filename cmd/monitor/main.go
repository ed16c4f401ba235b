package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memetracker/internal/analyzer"
	"memetracker/internal/config"
	cronrunner "memetracker/internal/cron"
	"memetracker/internal/db"
	"memetracker/internal/handler"
	"memetracker/internal/logger"
	"memetracker/internal/provider"
	gormrepository "memetracker/internal/repository/gorm"
	"memetracker/internal/stats"
	"memetracker/internal/tracker"
)

func main() {
	cfgPath := os.Getenv("MT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	retry := provider.NewRetryPolicy(cfg.Retry, logger)
	cache := provider.NewCache(cfg.Cache.TTL)
	birdeye := provider.NewBirdeyeClient(cfg.Providers.Birdeye, retry, cache, logger)
	dexscreener := provider.NewDexScreenerClient(cfg.Providers.DexScreener, retry, cache, logger)
	rugcheck := provider.NewRugCheckClient(cfg.Providers.RugCheck, retry, cache, logger)
	marketClient := provider.NewMarketClient(birdeye, dexscreener, logger)
	securityClient := provider.NewSecurityClient(rugcheck, logger)

	analyzerSvc := analyzer.New(store, marketClient, securityClient, logger)
	statsSvc := stats.New(store, cfg.Tiering.HitThresholdPct, logger)
	deadLetter := tracker.NewDeadLetter(cfg.Tracker.DeadLetterPath, cfg.Tracker.DeadLetterLimit)
	trackerSvc := tracker.New(store, marketClient, statsSvc, deadLetter, cfg.Tracker, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	api := &handler.API{
		Analyzer:   analyzerSvc,
		Repo:       store,
		Stats:      statsSvc,
		DeadLetter: deadLetter,
		Logger:     logger,
	}
	api.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.TrackerSpec, "tracker", func(ctx context.Context) {
			if err := trackerSvc.RunOnce(ctx); err != nil {
				logger.Warn("tracking batch failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register tracker failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.CacheSweep, "cache_sweep", func(ctx context.Context) {
			if n := cache.Sweep(); n > 0 {
				logger.Debug("cache swept", zap.Int("evicted", n))
			}
		})
		if err != nil {
			logger.Warn("cron register cache sweep failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.StatsRebuild, "stats_rebuild", func(ctx context.Context) {
			if err := statsSvc.RebuildAll(ctx); err != nil {
				logger.Warn("stats rebuild failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register stats rebuild failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
