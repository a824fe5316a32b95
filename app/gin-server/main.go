package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yoockh/yoodefence/config"
	"github.com/yoockh/yoodefence/internal/api/handlers"
	"github.com/yoockh/yoodefence/internal/api/middleware"
	"github.com/yoockh/yoodefence/internal/api/routes"
	"github.com/yoockh/yoodefence/internal/cache"
	"github.com/yoockh/yoodefence/internal/call"
	"github.com/yoockh/yoodefence/internal/logger"
	"github.com/yoockh/yoodefence/internal/providers/llm"
	"github.com/yoockh/yoodefence/internal/repositories"
	"github.com/yoockh/yoodefence/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoodefence/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoodefence/internal/repositories/postgres"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/storage"
	"github.com/yoockh/yoodefence/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		logger.New().Fatalf("config load error: %v", err)
	}
	log := logger.NewWithOptions(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	// Document store
	var (
		interviewRepo repositories.InterviewRepository
		feedbackRepo  repositories.FeedbackRepository
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		interviewRepo, feedbackRepo = store.Interviews(), store.Feedback()
		log.Warn("using in-memory document store; data is lost on restart")
	case "mongo", "":
		client, err := config.InitMongo(cfg.Store)
		if err != nil {
			log.Fatalf("MongoDB init error: %v", err)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.Store.MongoDB)
		if err := config.EnsureMongoIndexes(db); err != nil {
			log.WithError(err).Warn("mongo index creation failed")
		}
		interviewRepo, feedbackRepo = mongorepo.NewInterviewRepo(db), mongorepo.NewFeedbackRepo(db)
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info("MongoDB connected")
	default:
		log.Fatalf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}

	// Redis is optional unless feedback is queued
	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		rdb, err = config.InitRedis(cfg.Redis)
		if err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Redis connected")
	}

	// SQL is optional
	var sqlDB *gorm.DB
	if cfg.Database.Driver != "" {
		sqlDB, err = config.InitSQL(cfg.Database)
		if err != nil {
			log.Fatalf("SQL init error: %v", err)
		}
		checks["sql"] = func(ctx context.Context) error {
			raw, err := sqlDB.DB()
			if err != nil {
				return err
			}
			return raw.PingContext(ctx)
		}
		log.WithField("driver", cfg.Database.Driver).Info("SQL connected")
	}

	provider, err := llm.New(ctx, llm.Config(cfg.LLM))
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer provider.Close()

	var blobs storage.BlobStore
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.Public)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		blobs = gcs
	}

	var interviewCache cache.Cache = cache.NewMemory()
	if rdb != nil {
		interviewCache = cache.NewRedisCache(rdb)
	}

	// Services
	var (
		callLogSvc services.CallLogService
		purger     services.CallLogPurger
		fileSvc    services.ProjectFileService
	)
	if sqlDB != nil {
		callLogSvc = services.NewCallLogService(pgrepo.NewCallLogRepo(sqlDB))
		purger = callLogSvc
		if blobs != nil {
			fileSvc = services.NewProjectFileService(pgrepo.NewProjectFileRepo(sqlDB), blobs)
		}
	}
	questionSvc := services.NewQuestionService(provider, log)
	interviewSvc := services.NewInterviewService(interviewRepo, questionSvc, interviewCache, blobs, purger, log)
	feedbackSvc := services.NewFeedbackService(feedbackRepo, interviewRepo, provider, log)

	requester := call.InlineFeedback(feedbackSvc)
	if cfg.Feedback.Mode == "queue" {
		if rdb == nil {
			log.Fatal("FEEDBACK_MODE=queue requires REDIS_ADDR")
		}
		requester = workers.NewQueueRequester(rdb, cfg.Feedback.WaitTimeout)
		if cfg.Feedback.Workers > 0 {
			pool := &workers.FeedbackWorkerPool{
				Redis:      rdb,
				Feedback:   feedbackSvc,
				NumWorkers: cfg.Feedback.Workers,
				Logger:     log,
			}
			if err := pool.Start(ctx); err != nil {
				log.Fatalf("feedback workers error: %v", err)
			}
		}
	}

	// HTTP
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Sweep(ctx, time.Minute, 10*time.Minute)

	deps := routes.Deps{
		Auth: middleware.AuthConfig{
			Secret:   cfg.Auth.Secret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		RateLimiter: limiter,
		Health:      handlers.NewHealthHandler(checks),
		Generate:    handlers.NewGenerateHandler(interviewSvc),
		Interview:   handlers.NewInterviewHandler(interviewSvc, feedbackSvc),
		Feedback:    handlers.NewFeedbackHandler(feedbackSvc, interviewSvc, requester),
		Call: handlers.NewCallHandler(interviewSvc, feedbackSvc, callLogSvc, requester,
			handlers.VoiceConfig{WebToken: cfg.Voice.WebToken, WorkflowID: cfg.Voice.WorkflowID},
			log, cfg.Server.CORSOrigins),
	}
	if fileSvc != nil {
		deps.ProjectFile = handlers.NewProjectFileHandler(fileSvc)
	}
	if callLogSvc != nil {
		deps.CallLog = handlers.NewCallLogHandler(callLogSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.Server.CORSOrigins))
	r.MaxMultipartMemory = services.MaxProjectFileSize
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "llm": provider.Name()}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
