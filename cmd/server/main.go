package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/users/api/handler"
	"github.com/fastygo/users/internal/config"
	boltInfra "github.com/fastygo/users/internal/infrastructure/bolt"
	"github.com/fastygo/users/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/users/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/users/internal/infrastructure/redis"
	"github.com/fastygo/users/internal/lifecycle"
	"github.com/fastygo/users/internal/middleware"
	"github.com/fastygo/users/internal/router"
	"github.com/fastygo/users/pkg/httpcontext"
	"github.com/fastygo/users/pkg/logger"
	"github.com/fastygo/users/repository"
	boltRepo "github.com/fastygo/users/repository/bolt"
	"github.com/fastygo/users/repository/memory"
	pgRepo "github.com/fastygo/users/repository/postgres"
	redisRepo "github.com/fastygo/users/repository/redis"
	userUC "github.com/fastygo/users/usecase/user"
	"github.com/fastygo/users/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.SignalContext(context.Background())
	defer stop()

	mon := monitor.New(cfg.Monitor.Interval, zapLogger)

	users, err := openStore(appCtx, cfg, manager, mon, zapLogger)
	if err != nil {
		zapLogger.Fatal("store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	if cfg.CacheEnabled() {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
		mon.Add("redis", monitor.RedisCheck(redisClient))
		users = redisRepo.NewCachedUserRepository(users, redisClient, cfg.Redis.CacheTTL, zapLogger)
	}

	if err := mon.Start(); err != nil {
		zapLogger.Fatal("health monitor failed", zap.Error(err))
	}
	manager.Register("monitor", mon.Stop)

	userUseCase := userUC.New(users, userUC.Config{AgeLimit: cfg.Users.AgeLimit}, zapLogger)
	ctxAdapter := httpcontext.NewAdapter(context.Background(), cfg.Context.RequestTimeout)

	handler := router.New(router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, validation.New(nil), ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, cfg.Store.Driver, ctxAdapter, zapLogger),
	}, middleware.Recover(zapLogger), middleware.AccessLog(zapLogger))

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver),
			zap.Int("age_limit", userUseCase.AgeLimit()),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			serveErr <- err
		}
	}()
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Wait(appCtx, serveErr); err != nil {
		zapLogger.Error("shutdown finished with errors", zap.Error(err))
	}
}

// openStore builds the backend selected by STORE_DRIVER and registers its
// teardown and health probe.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, mon *monitor.Monitor, zapLogger *zap.Logger) (repository.UserRepository, error) {
	switch cfg.Store.Driver {
	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Store.BoltPath, zapLogger, boltRepo.Bucket)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", func(context.Context) error {
			return db.Close()
		})
		mon.Add("bolt", monitor.BoltCheck(db))
		return boltRepo.NewUserRepository(db), nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		mon.Add("postgres", monitor.PostgresCheck(pool))
		return pgRepo.NewUserRepository(pool), nil

	default:
		zapLogger.Info("using in-memory store")
		return memory.NewUserRepository(), nil
	}
}
