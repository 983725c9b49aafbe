package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immersive-english/internal/config"
	"immersive-english/internal/domain/ports/adapter"
	videoStream "immersive-english/internal/infra/adapters/stream"
	pg "immersive-english/internal/infra/db/postgres"
	"immersive-english/internal/infra/logging"
	red "immersive-english/internal/infra/redis"
	"immersive-english/internal/infra/sched"
	"immersive-english/internal/infra/security"
	"immersive-english/internal/infra/web"
	"immersive-english/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		mg, err := pg.NewMigrator(cfg.Database.URL, cfg.Database.MigrationsDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("migrator")
		}
		if err := mg.Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrations")
		}
		_ = mg.Close()
	}

	// ---- Redis (optional, backs the auto-join rate limiter) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set, auto-join runs without rate limiting")
	}

	// ---- Repositories ----
	codeRepo := pg.NewAccessCodeRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	vocabRepo := pg.NewVocabRepo(pool)
	clipRepo := pg.NewClipRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Video hosting ----
	var stream adapter.VideoStreamAdapter
	if cfg.Stream.AccountID != "" && cfg.Stream.APIToken != "" {
		stream, err = videoStream.NewCloudflareStream(cfg.Stream.AccountID, cfg.Stream.APIToken, cfg.Stream.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("stream adapter")
		}
	} else {
		logger.Warn().Msg("stream credentials not set, uploads use the no-op adapter")
		stream = videoStream.NewNoopStream()
	}

	// ---- Use cases ----
	hasher := security.NewBcryptHasher(0)
	allocUC := usecase.NewAllocatorUseCase(codeRepo, logger)
	redeemUC := usecase.NewRedemptionUseCase(codeRepo)
	regUC := usecase.NewRegistrationUseCase(codeRepo, userRepo, txManager, hasher, logger)
	vocabUC := usecase.NewVocabUseCase(vocabRepo)
	clipUC := usecase.NewClipUseCase(clipRepo, stream, logger)
	adminUC := usecase.NewCodeAdminUseCase(codeRepo, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	server := web.NewServer(cfg, allocUC, redeemUC, regUC, vocabUC, clipUC, adminUC, auth, limiter, logger)

	// ---- Pool maintenance worker ----
	worker := sched.NewPoolWorker(cfg.Pool.ReapInterval, cfg.Pool.ReservationTTL, codeRepo, logger)
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("pool worker stopped")
		}
	}()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
