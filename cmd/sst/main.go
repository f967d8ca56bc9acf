package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/globalled/sst/internal/sst/auth"
	"github.com/globalled/sst/internal/sst/config"
	"github.com/globalled/sst/internal/sst/controller"
	"github.com/globalled/sst/internal/sst/db"
	"github.com/globalled/sst/internal/sst/events"
	"github.com/globalled/sst/internal/sst/handlers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
)

const healthInterval = 15 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("invalid config", zap.Error(err))
	}

	level, _ := cfg.Level()
	logger := initLogger(level)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	repo, err := connectDatabase(cfg.DBConfig(), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var producer controller.EventProducer = events.NopProducer{}
	if cfg.KafkaEnabled() {
		p, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer p.Close()
		producer = p
	} else {
		logger.Warn("No Kafka brokers configured, record events are disabled")
	}

	complianceSvc := controller.NewComplianceService(repo, producer, logger)
	authSvc := auth.NewService(repo, cfg.JWTSecret, cfg.TokenTTL, logger)

	if cfg.KafkaEnabled() {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.AckTopic, complianceSvc, logger)
		consumer.Start(ctx)
		defer func() {
			cancel()
			<-consumer.Done()
			consumer.Close()
		}()
	}

	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger,
		grpc.UnaryInterceptor(authInterceptor.Unary()),
		grpc.StreamInterceptor(authInterceptor.Stream()),
	)

	complianceHandler := handlers.NewComplianceHandler(complianceSvc, authSvc, repo, logger)
	if err := server.RegisterHTTPHandler(complianceHandler, cfg.JWTSecret); err != nil {
		logger.Fatal("Failed to register HTTP handler", zap.Error(err))
	}
	go server.MonitorHealth(ctx, repo, healthInterval)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger at level.
func initLogger(level zapcore.Level) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// connectDatabase opens the repository, retrying while postgres comes up.
func connectDatabase(cfg *db.Config, logger *zap.Logger) (*db.Repository, error) {
	var repo *db.Repository

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(cfg)
		return err
	}, policy, func(err error, next time.Duration) {
		logger.Warn("Database not ready, retrying", zap.Error(err), zap.Duration("next", next))
	})
	return repo, err
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
