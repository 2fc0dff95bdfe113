package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feed_ranker/internal/config"
	"feed_ranker/internal/publisher"
	"feed_ranker/internal/scheduler"
	"feed_ranker/internal/service"
	"feed_ranker/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single ranking cycle and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize stores
	eventStore := postgres.NewEventStore(db)
	videoStore := postgres.NewVideoStore(db)
	rankingStore := postgres.NewRankingStore(db)
	runLock := postgres.NewRunLock(db)
	txManager := postgres.NewTransactionManager(db)

	rankingService := service.NewRankingService(
		eventStore,
		videoStore,
		rankingStore,
		runLock,
		txManager,
		rabbitMQ,
		logger,
		cfg.Ranking,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *once {
		// On-demand cycle, same semantics as a scheduled one.
		runCtx, runCancel := context.WithTimeout(ctx, cfg.Ranking.RunTimeout)
		defer runCancel()

		if _, err := rankingService.Run(runCtx); err != nil {
			logger.Error("ranking run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(rankingService, cfg.Ranking.Interval, cfg.Ranking.RunTimeout, logger)

	logger.Info("starting feed ranker",
		"interval", cfg.Ranking.Interval,
		"retention_window", cfg.Ranking.RetentionWindow,
		"max_rankings", cfg.Ranking.MaxRankings,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
