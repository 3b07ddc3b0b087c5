package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/elearning-api/api/swagger"
	"github.com/noah-isme/elearning-api/internal/handler"
	"github.com/noah-isme/elearning-api/internal/repository"
	"github.com/noah-isme/elearning-api/internal/service"
	"github.com/noah-isme/elearning-api/migrations"
	"github.com/noah-isme/elearning-api/pkg/cache"
	"github.com/noah-isme/elearning-api/pkg/config"
	"github.com/noah-isme/elearning-api/pkg/database"
	"github.com/noah-isme/elearning-api/pkg/events"
	"github.com/noah-isme/elearning-api/pkg/jobs"
	"github.com/noah-isme/elearning-api/pkg/logger"
)

// @title E-Learning API
// @version 1.0.0
// @description Lesson submission, scoring and grade book service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		err = serve(ctx, cfg, logr)
	case "migrate":
		err = runMigrate(ctx, cfg, logr, args)
	case "token":
		err = issueToken(ctx, cfg, logr, args)
	default:
		err = fmt.Errorf("unknown command %q (want serve, migrate or token)", command)
	}
	if err != nil {
		logr.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

func serve(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Migrations.AutoApply {
		if err := migrateUp(db, logr); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Results.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		rabbit, err := events.NewRabbitMQPublisher(cfg.Events, logr)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		publisher = rabbit
	}
	defer publisher.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	lessonRepo := repository.NewLessonRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db).WithObserver(metricsSvc)
	userRepo := repository.NewUserRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Results.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, logr, authConfig(cfg))
	profileSvc := service.NewProfileService(userRepo, logr)
	gradebookSvc := service.NewGradebookService(lessonRepo, submissionRepo, userRepo, cacheSvc, cfg.Results.CacheTTL, logr)

	eventSvc := service.NewSubmissionEventService(userRepo, publisher, metricsSvc, logr)
	eventQueue := jobs.NewQueue("submission-events", eventSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	})
	eventSvc.Bind(eventQueue)
	eventQueue.Start(ctx)

	submissionSvc := service.NewSubmissionService(lessonRepo, answerRepo, questionRepo, submissionRepo, validate, logr).
		WithMetrics(metricsSvc).
		WithCache(cacheSvc).
		WithEvents(eventSvc)

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}

	r := newRouter(routerDeps{
		cfg:        cfg,
		logger:     logr,
		tokens:     authSvc,
		metrics:    handler.NewMetricsHandler(metricsSvc, checks),
		observer:   metricsSvc,
		submission: handler.NewSubmissionHandler(submissionSvc),
		gradebook:  handler.NewGradebookHandler(gradebookSvc),
		profile:    handler.NewProfileHandler(profileSvc),
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if err := eventQueue.Stop(shutdownCtx); err != nil {
		logr.Warn("event queue shutdown", zap.Error(err))
	}
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	direction := fs.String("direction", "up", "migration direction: up or down")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	switch *direction {
	case "up":
		return migrateUp(db, logr)
	case "down":
		migrator, err := database.NewMigrator(db, migrations.FS)
		if err != nil {
			return err
		}
		if err := migrator.Down(); err != nil {
			return err
		}
		logr.Info("migrations rolled back")
		return nil
	default:
		return fmt.Errorf("unknown migration direction %q", *direction)
	}
}

func migrateUp(db *sqlx.DB, logr *zap.Logger) error {
	migrator, err := database.NewMigrator(db, migrations.FS)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return err
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	logr.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// issueToken prints an access token for an existing user. Intended for operators and local testing.
func issueToken(ctx context.Context, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id to issue the token for")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return errors.New("-user is required")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	authCfg := authConfig(cfg)
	authCfg.AccessTokenExpiry = *ttl
	token, _, err := service.NewAuthService(repository.NewUserRepository(db), logr, authCfg).IssueToken(ctx, *userID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func authConfig(cfg *config.Config) service.AuthConfig {
	return service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	}
}
