package main

import (
	"context"
	"log"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/planit/backend/api/handler"
	"github.com/planit/backend/internal/config"
	"github.com/planit/backend/internal/infrastructure/buffer"
	"github.com/planit/backend/internal/infrastructure/monitor"
	pgInfra "github.com/planit/backend/internal/infrastructure/postgres"
	redisInfra "github.com/planit/backend/internal/infrastructure/redis"
	"github.com/planit/backend/internal/middleware"
	"github.com/planit/backend/internal/nlp"
	"github.com/planit/backend/internal/router"
	"github.com/planit/backend/internal/services"
	"github.com/planit/backend/internal/services/lifecycle"
	"github.com/planit/backend/pkg/httpcontext"
	"github.com/planit/backend/pkg/logger"
	"github.com/planit/backend/repository/postgres"
	redisRepo "github.com/planit/backend/repository/redis"
	analyticsUC "github.com/planit/backend/usecase/analytics"
	authUC "github.com/planit/backend/usecase/auth"
	"github.com/planit/backend/usecase/chat"
	"github.com/planit/backend/usecase/points"
	profileUC "github.com/planit/backend/usecase/profile"
	taskUC "github.com/planit/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.NotifyContext(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisPinger(redisClient), bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	activityRepo := postgres.NewPointActivityRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)
	checkinGuard := redisRepo.NewCheckinGuard(redisClient)
	conversationRepo := redisRepo.NewConversationRepository(redisClient, cfg.Assistant.PendingTTL)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		userRepo,
		taskRepo,
		activityRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	engine := points.NewEngine(userRepo, activityRepo, checkinGuard, bufferBridge, points.Amounts{
		SignupBonus:    cfg.Points.SignupBonus,
		DailyCheckin:   cfg.Points.DailyCheckin,
		TaskOnTime:     cfg.Points.TaskOnTime,
		MissedDeadline: cfg.Points.MissedDeadline,
	}, zapLogger)

	sweeper := services.NewDeadlineSweeper(taskRepo, engine, mon, zapLogger, services.SweeperConfig{
		Interval: cfg.Points.SweepInterval,
	})
	sweeper.Start()
	manager.Register("deadline_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, engine, authUC.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		TokenTTL:   cfg.JWT.TokenTTL,
		SessionTTL: cfg.JWT.SessionTTL,
	}, zapLogger)
	profileUseCase := profileUC.New(userRepo, bufferBridge, zapLogger)
	taskUseCase := taskUC.New(taskRepo, bufferBridge, engine, zapLogger)
	analyticsUseCase := analyticsUC.New(taskRepo, userRepo, zapLogger)

	assistantCfg := chat.Config{ListLimit: cfg.Assistant.ListLimit}
	chatAssistant := chat.NewAssistant(
		nlp.NewParser(nlp.Options{Policy: nlp.PolicyTaskContext, DefaultPriority: cfg.Assistant.DefaultPriority}),
		taskUseCase, conversationRepo, assistantCfg, zapLogger,
	)
	commandAssistant := chat.NewAssistant(
		nlp.NewParser(nlp.Options{Policy: nlp.PolicyUnconstrained, DefaultPriority: cfg.Assistant.CommandDefaultPriority}),
		taskUseCase, conversationRepo, assistantCfg, zapLogger,
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:   apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Points:    apiHandler.NewPointsHandler(engine, ctxAdapter, zapLogger),
		Analytics: apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Assistant: apiHandler.NewAssistantHandler(chatAssistant, commandAssistant, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("env", cfg.Environment))
	manager.Go("http_server", func() error {
		return server.ListenAndServe(cfg.Address())
	}, cancel)
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
}

func redisPinger(client *goRedis.Client) monitor.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
