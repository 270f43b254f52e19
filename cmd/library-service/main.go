package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	repoPostgres "github.com/sudo-mko/Libsys/internal/domain/repository/postgres"
	"github.com/sudo-mko/Libsys/internal/events/kafka"
	httpHandler "github.com/sudo-mko/Libsys/internal/handler/http"
	infraPostgres "github.com/sudo-mko/Libsys/internal/infrastructure/database/postgres"
	"github.com/sudo-mko/Libsys/internal/infrastructure/security"
	"github.com/sudo-mko/Libsys/internal/service"
	"github.com/sudo-mko/Libsys/internal/utils/cache"
	"github.com/sudo-mko/Libsys/internal/utils/jwt"
	"github.com/sudo-mko/Libsys/internal/utils/logger"
	"github.com/sudo-mko/Libsys/internal/utils/shutdown"
)

func main() {
	sweepOnce := flag.Bool("sweep", false, "run the expiry sweeps once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := infraPostgres.RunMigrations(cfg.Database, "migrations", log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	dbPool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	// Repositories.
	userRepo := repoPostgres.NewUserRepositoryPostgres(dbPool)
	sessionRepo := repoPostgres.NewSessionRepositoryPostgres(dbPool)
	borrowingRepo := repoPostgres.NewBorrowingRepositoryPostgres(dbPool)
	extensionRepo := repoPostgres.NewExtensionRepositoryPostgres(dbPool)
	reservationRepo := repoPostgres.NewReservationRepositoryPostgres(dbPool)
	fineRepo := repoPostgres.NewFineRepositoryPostgres(dbPool)
	bookRepo := repoPostgres.NewBookRepositoryPostgres(dbPool)
	settingRepo := repoPostgres.NewSettingRepositoryPostgres(dbPool)
	auditRepo := repoPostgres.NewAuditLogRepositoryPostgres(dbPool)
	txManager := repoPostgres.NewTxManager(dbPool)

	// Optional Redis cache in front of system settings.
	var settingsCache *cache.Cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, settings cache disabled", zap.Error(err))
		} else {
			settingsCache = cache.NewCache(redisClient, log, "libsys")
			defer func() { _ = redisClient.Close() }()
		}
	}

	// Optional Kafka mirror of the audit trail.
	var auditPublisher *kafka.AuditProducer
	if cfg.Kafka.Enabled {
		auditPublisher, err = kafka.NewAuditProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Warn("Kafka unavailable, audit events stay local", zap.Error(err))
		} else {
			defer func() { _ = auditPublisher.Close() }()
		}
	}

	passwordService, err := security.NewArgon2idPasswordService(cfg.Security.PasswordHash)
	if err != nil {
		log.Fatal("Failed to initialize password hasher", zap.Error(err))
	}

	tokens, err := jwt.NewTokenManager(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	// Services. The audit recorder is shared; every service appends through it.
	var recorder *service.Recorder
	if auditPublisher != nil {
		recorder = service.NewRecorder(auditRepo, auditPublisher, log)
	} else {
		recorder = service.NewRecorder(auditRepo, nil, log)
	}

	settingsService := service.NewSettingsService(settingRepo, settingsCache, cfg.Sessions.SettingsCacheTTL, recorder, log)
	lockoutService := service.NewLockoutService(userRepo, recorder, cfg.Security.Lockout, log)
	policyService := service.NewPasswordPolicyService(userRepo, recorder, cfg.Security.PasswordPolicy, log)
	sessionService := service.NewSessionService(sessionRepo, userRepo, settingsService, recorder, cfg.Sessions, log)
	authService := service.NewAuthService(userRepo, sessionRepo, lockoutService, policyService,
		passwordService, tokens, recorder, cfg.Security, log)

	fineCalculator, err := service.NewFineCalculator(cfg.Fines)
	if err != nil {
		log.Fatal("Invalid fine configuration", zap.Error(err))
	}
	borrowingService := service.NewBorrowingService(borrowingRepo, extensionRepo, bookRepo, userRepo,
		fineRepo, txManager, fineCalculator, settingsService, recorder, cfg.Borrowing, log)
	reservationService := service.NewReservationService(reservationRepo, bookRepo, userRepo,
		settingsService, recorder, cfg.Borrowing, log)
	fineService := service.NewFineService(fineRepo, recorder, log)

	if *sweepOnce {
		runSweeps(ctx, log, borrowingService, reservationService, sessionService)
		return
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Auth:         authService,
		Sessions:     sessionService,
		Lockout:      lockoutService,
		Policy:       policyService,
		Borrowings:   borrowingService,
		Reservations: reservationService,
		Fines:        fineService,
		Settings:     settingsService,
		Users:        userRepo,
		AuditLogs:    auditRepo,
		Tokens:       tokens,
		Logger:       log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	servers := []*http.Server{server}

	// The main router already serves /metrics; a separate listener is only
	// needed when scraping happens on a different port.
	if cfg.Metrics.Enabled && cfg.Metrics.Port != cfg.Server.Port {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		servers = append(servers, metricsServer)
		go func() {
			log.Info("Metrics server listening", zap.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	shutdown.Wait(cfg.Server.ShutdownTimeout, log, servers...)
}

// runSweeps executes the three lazy-expiry sweeps once. Meant for a cron
// container; the request path does not depend on it.
func runSweeps(
	ctx context.Context,
	log *zap.Logger,
	borrowings *service.BorrowingService,
	reservations *service.ReservationService,
	sessions *service.SessionService,
) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if expired, err := borrowings.ExpireStalePickups(ctx); err != nil {
		log.Error("Pickup sweep failed", zap.Error(err))
	} else {
		log.Info("Pickup sweep finished", zap.Int("expired", expired))
	}

	if expired, err := reservations.ExpireStale(ctx); err != nil {
		log.Error("Reservation sweep failed", zap.Error(err))
	} else {
		log.Info("Reservation sweep finished", zap.Int("expired", expired))
	}

	if expired, err := sessions.CleanupExpired(ctx); err != nil {
		log.Error("Session sweep failed", zap.Error(err))
	} else {
		log.Info("Session sweep finished", zap.Int("expired", expired))
	}
}
