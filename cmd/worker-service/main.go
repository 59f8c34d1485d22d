package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liirat-news/internal/worker/config"
	"liirat-news/internal/worker/repository"
	"liirat-news/internal/worker/service"
	"liirat-news/internal/worker/strategy"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/postgres"
	"liirat-news/pkg/pricecache"
	"liirat-news/pkg/redis"
	"liirat-news/pkg/telegram"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the worker service",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:   "run [job name]",
	Short: "Runs a single configured job once and exits",
	Args:  cobra.ExactArgs(1),
	Run:   runOnce,
}

type worker struct {
	cfg      *config.Config
	logger   *logger.Logger
	executor service.ExecutorService
	closers  []func()
}

func (w *worker) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

func setup() *worker {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	w := &worker{cfg: cfg, logger: appLogger}
	w.closers = append(w.closers, func() { _ = appLogger.Sync() })

	appLogger.Info("Starting Worker Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	db, err := postgres.NewDB(cfg.Database.Postgres())
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		w.closers = append(w.closers, func() { sqlDB.Close() })
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis.Client())
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	w.closers = append(w.closers, func() { redisClient.Close() })

	notifier := telegram.NewNopNotifier()
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	assetRepo := repository.NewAssetRepository(db.DB)
	eventRepo := repository.NewEventRepository(db.DB)
	newsRepo := repository.NewNewsArticleRepository(db.DB)
	quoteRepo := repository.NewTwelveDataRepository(cfg.TwelveData, appLogger)
	priceStore := pricecache.NewRedisStore(redisClient.Client, cfg.Prices.SnapshotTTL)
	eodhdClient := eodhd.NewClient(cfg.EODHD.BaseURL, cfg.EODHD.Token, cfg.EODHD.MaxRequestPerMinute, appLogger)

	// Initialize Strategies
	strategies := []strategy.JobExecutionStrategy{
		strategy.NewPriceRefreshStrategy(quoteRepo, assetRepo, priceStore, appLogger),
		strategy.NewCalendarSyncStrategy(eodhdClient, eventRepo, appLogger),
		strategy.NewNewsIngestStrategy(newsRepo, appLogger),
	}

	w.executor = service.NewExecutorService(historyRepo, notifier, appLogger, strategies)
	return w
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := setup()
	defer w.Close()

	schedulerSvc, err := service.NewSchedulerService(w.cfg.Jobs, w.executor, w.logger, w.cfg.Worker.PollingInterval)
	if err != nil {
		w.logger.Fatal("Failed to initialize scheduler", logger.ErrorField(err))
	}

	go schedulerSvc.Start(ctx)
	w.logger.Info("Worker service started", logger.IntField("jobs", len(w.cfg.Jobs)))

	<-ctx.Done()
	w.logger.Info("Shutting down worker service...")

	done := make(chan struct{})
	go func() {
		schedulerSvc.Stop()
		close(done)
	}()
	select {
	case <-done:
		w.logger.Info("Worker service stopped.")
	case <-time.After(w.cfg.Worker.ShutdownTimeout):
		w.logger.Warn("Timed out waiting for running jobs")
	}
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := setup()
	defer w.Close()

	for i := range w.cfg.Jobs {
		if w.cfg.Jobs[i].Name != args[0] {
			continue
		}
		history := w.executor.Execute(ctx, &w.cfg.Jobs[i])
		fmt.Printf("%s: %s\n", history.JobName, history.Status)
		if history.Output != nil {
			fmt.Println(string(history.Output))
		}
		return
	}
	w.logger.Error("Job not found in configuration", logger.StringField("job", args[0]))
}

func main() {
	rootCmd := &cobra.Command{Use: "worker-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-worker.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing worker-service CLI: %s\n", err)
		os.Exit(1)
	}
}
