package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vetting/interviewer/internal/auth"
	"vetting/interviewer/internal/config"
	"vetting/interviewer/internal/evaluation"
	"vetting/interviewer/internal/events"
	"vetting/interviewer/internal/handlers"
	"vetting/interviewer/internal/jobs"
	"vetting/interviewer/internal/llm"
	"vetting/interviewer/internal/metrics"
	"vetting/interviewer/internal/middleware"
	"vetting/interviewer/internal/models"
	"vetting/interviewer/internal/prompts"
	"vetting/interviewer/internal/report"
	"vetting/interviewer/internal/repositories"
	"vetting/interviewer/internal/routers"
	"vetting/interviewer/internal/session"
)

// app holds the wired service graph shared by the commands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	provider llm.Provider
	prompts  *prompts.Provider
	service  *session.Service
	reports  *repositories.ReportRepository
	tokens   *auth.Tokens
	job      *jobs.MaintenanceJob
	closers  []func()
}

// openDatabase connects to Postgres. TranslateError lets the repositories see unique
// violations as gorm.ErrDuplicatedKey.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func newPromptCache(cfg *config.Config) (prompts.Cache, func(), error) {
	switch cfg.PromptCacheBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return prompts.NewRedisCache(rdb, "interviewer:"), func() { rdb.Close() }, nil
	case "none":
		return nil, func() {}, nil
	default:
		cache := prompts.NewMemoryCache(time.Minute)
		return cache, cache.Close, nil
	}
}

// buildApp wires repositories, the prompt provider, the evaluation pipeline and the session
// service around db and provider
func buildApp(cfg *config.Config, logger *zap.Logger, db *gorm.DB, provider llm.Provider) (*app, error) {
	cache, closeCache, err := newPromptCache(cfg)
	if err != nil {
		return nil, err
	}

	promptRepo := &repositories.PromptRepository{DB: db}
	promptProvider, err := prompts.NewProvider(promptRepo, cache, cfg.PromptCacheTTL, logger)
	if err != nil {
		closeCache()
		return nil, err
	}

	directory := &repositories.InterviewRepository{DB: db}
	sessions := &repositories.SessionRepository{DB: db}
	reports := &repositories.ReportRepository{DB: db}

	structured := llm.NewStructuredClient(provider, cfg.GenerationMaxAttempts, logger)
	pipeline := evaluation.NewPipeline(structured, promptProvider, evaluation.Config{StageTimeout: cfg.StageTimeout}, logger)
	generator := report.NewGenerator(structured, promptProvider, reports, directory, cfg.ReportTimeout, logger)

	service := session.NewService(session.Deps{
		Directory: directory,
		Sessions:  sessions,
		Pipeline:  pipeline,
		Prompts:   promptProvider,
		Reports:   generator,
		Events: events.New(events.Config{
			URL:        cfg.RabbitMQURL,
			Queue:      cfg.RabbitMQQueue,
			Expiration: 24 * time.Hour,
		}, logger),
	}, session.Config{
		GuardrailStrikeLimit: cfg.GuardrailStrikeLimit,
		EndIntentKeywords:    cfg.EndIntentKeywords,
	}, logger)

	job := jobs.NewMaintenanceJob(sessions, service, generator, &jobs.MaintenanceConfig{
		Schedule:          cfg.SweepSchedule,
		IdleTimeout:       cfg.SessionIdleTimeout,
		BackfillBatchSize: cfg.BackfillBatchSize,
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		provider: provider,
		prompts:  promptProvider,
		service:  service,
		reports:  reports,
		tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		job:      job,
		closers:  []func(){closeCache},
	}, nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
}

// requestTimeout covers the four sequential pipeline stages of a turn plus the report of a final turn
func (a *app) requestTimeout() time.Duration {
	return 4*a.cfg.StageTimeout + a.cfg.ReportTimeout
}

func (a *app) router() http.Handler {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimw.RequestID, chimw.RealIP, middleware.RequestLogger(a.logger), chimw.Recoverer, chimw.Timeout(a.requestTimeout()))
	router.Use(metrics.Middleware("interviewer"))

	var pinger handlers.Pinger
	if sqlDB, err := a.db.DB(); err == nil {
		pinger = sqlDB
	}

	routers.HealthRoutes(router, handlers.NewHealthHandler(a.provider, a.prompts, pinger, a.cfg))
	routers.InterviewRoutes(router,
		handlers.NewInterviewHandler(a.service, a.tokens, a.logger),
		handlers.NewReportHandler(a.reports, a.logger),
		a.tokens)
	routers.AdminRoutes(router, handlers.NewPromptHandler(a.prompts, a.logger))
	return router
}
