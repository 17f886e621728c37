package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ordersync/internal/config"
	httpctl "ordersync/internal/controllers/http"
	"ordersync/internal/infra/rabbitmq"
	"ordersync/internal/repository/store"
	"ordersync/internal/scheduler"
	"ordersync/internal/services"
	"ordersync/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.Cache)
	if err != nil {
		logger.Fatal("cache store open failed", zap.Error(err))
	}

	orderRepo := store.NewOrderRepository(db)
	productRepo := store.NewProductRepository(db)
	inventoryRepo := store.NewInventoryRepository(db)
	statusRepo := store.NewStatusRepository(db)

	ledger, err := services.NewLedger(context.Background(), statusRepo)
	if err != nil {
		logger.Fatal("status ledger load failed", zap.Error(err))
	}

	client, err := upstream.NewClient(cfg.Upstream, logger)
	if err != nil {
		logger.Fatal("upstream client init failed", zap.Error(err))
	}

	var publisher rabbitmq.PublisherInterface
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("publisher init failed", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	}

	service := services.NewRefreshService(
		client, orderRepo, productRepo, inventoryRepo, ledger, publisher, cfg.Cache, logger,
	)

	sched := scheduler.New(service, cfg.Schedule, logger)
	sched.Start()
	defer sched.Stop()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Host + ":6379",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
	}

	handler := httpctl.NewHandler(service, orderRepo, productRepo, inventoryRepo, redisClient, cfg.Cache)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r)

	logger.Info("starting sync service", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server run failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	return zapCfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}
