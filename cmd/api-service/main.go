package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liirat-news/internal/api/config"
	delivery "liirat-news/internal/api/delivery/http"
	_ "liirat-news/internal/api/docs"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/api/service"
	"liirat-news/internal/session"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/postgres"
	"liirat-news/pkg/pricecache"
	"liirat-news/pkg/redis"
	"liirat-news/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the API service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting API Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	db, err := postgres.NewDB(cfg.Database.Postgres())
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis.Client())
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Session store
	var storage session.Storage
	switch cfg.Session.Storage {
	case "memory":
		storage = session.NewMemoryStorage()
	default:
		storage = session.NewRedisStorage(redisClient.Client)
	}
	sessions := session.NewManager(storage, session.NewBus(), cfg.Session.TTL)

	// Upstream clients
	eodhdClient := eodhd.NewClient(cfg.EODHD.BaseURL, cfg.EODHD.Token, cfg.EODHD.MaxRequestPerMinute, appLogger)
	if !eodhdClient.HasToken() {
		appLogger.Warn("EODHD token is not configured, economic events proxy will fail")
	}

	openAIRepo := repository.NewOpenAIRepository(repository.OpenAIConfig{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	}, appLogger)

	var genAiClient *genai.Client
	if cfg.Gemini.APIKey != "" {
		genAiClient, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
	} else {
		appLogger.Warn("Gemini API key is not configured, event analysis is disabled")
	}

	notifier := telegram.NewNopNotifier()
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	eventGateway := repository.NewEventGateway(db.DB)
	alertGateway := repository.NewAlertGateway(db.DB)
	watchlistGateway := repository.NewWatchlistGateway(db.DB)
	assetGateway := repository.NewAssetGateway(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	recentRepo := repository.NewRecentNotificationRepository(redisClient.Client, cfg.Notifications.HistorySize)
	contactRepo := repository.NewContactMessageRepository(db.DB)
	newsRepo := repository.NewNewsArticleRepository(db.DB)
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	translationCache := repository.NewFileTranslationCache(cfg.Translation.CacheFile)
	analysisRepo := repository.NewGeminiRepository(genAiClient, cfg.Gemini.Model, cfg.Gemini.MaxRequestPerMinute, appLogger)
	priceStore := pricecache.NewRedisStore(redisClient.Client, 0)

	// Initialize services
	locks := service.NewKeyedMutex()
	policy := service.DefaultDegradePolicy()
	calendarSvc := service.NewCalendarService(eventGateway, alertGateway, watchlistGateway, sessions.Bus(), service.CalendarOptions{
		PageSize:    cfg.Calendar.PageSize,
		UserDataTTL: cfg.Calendar.UserDataTTL,
		Policy:      policy,
	}, appLogger)
	defer calendarSvc.Close()

	notificationSvc := service.NewNotificationService(notificationRepo, recentRepo, appLogger)
	alertSvc := service.NewAlertService(alertGateway, eventGateway, assetGateway, calendarSvc, notificationSvc, locks, cfg.Calendar.AlertsPageSize, appLogger)
	watchlistSvc := service.NewWatchlistService(watchlistGateway, eventGateway, assetGateway, calendarSvc, alertSvc, notificationSvc, locks, appLogger)
	authSvc := service.NewAuthService(userRepo, sessions, appLogger)
	economicEventsSvc := service.NewEconomicEventsService(eodhdClient, cfg.EODHD.DefaultLookbackDays, cfg.EODHD.DefaultLookaheadDays, nil)
	translateSvc := service.NewTranslateService(translationCache, openAIRepo, appLogger)
	analysisSvc := service.NewAnalysisService(eventGateway, analysisRepo, locks, appLogger)
	chatSvc := service.NewChatService(openAIRepo, appLogger)
	contactSvc := service.NewContactService(contactRepo, notifier, appLogger)
	priceSvc := service.NewPriceService(priceStore, cfg.Prices.StaleAfter, policy, appLogger)
	newsSvc := service.NewNewsService(newsRepo)
	historySvc := service.NewExecutionHistoryService(historyRepo, appLogger)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(delivery.MetricsMiddleware())

	e.GET("/metrics", delivery.MetricsHandler())
	e.GET("/swagger/*", swagger.WrapHandler)

	// Upstream proxies keep their unversioned paths
	apiGroup := e.Group("/api")
	delivery.NewEconomicEventsHandler(economicEventsSvc, appLogger).RegisterRoutes(apiGroup)
	delivery.NewTranslateHandler(translateSvc, appLogger).RegisterRoutes(apiGroup)

	apiV1 := e.Group("/api/v1", delivery.SessionMiddleware(sessions, appLogger))

	calendarHandler := delivery.NewCalendarHandler(calendarSvc, appLogger)
	calendarHandler.RegisterRoutes(apiV1.Group("/calendar"))

	alertHandler := delivery.NewAlertHandler(alertSvc, appLogger)
	alertHandler.RegisterRoutes(apiV1.Group("/alerts"))
	alertHandler.RegisterAssetRoutes(apiV1.Group("/assets"))

	watchlistHandler := delivery.NewWatchlistHandler(watchlistSvc, appLogger)
	watchlistHandler.RegisterRoutes(apiV1.Group("/watchlist"))

	authHandler := delivery.NewAuthHandler(authSvc, appLogger)
	authHandler.RegisterRoutes(apiV1.Group("/auth"))

	delivery.NewAnalysisHandler(analysisSvc, appLogger).RegisterRoutes(apiV1.Group("/events"))
	delivery.NewChatHandler(chatSvc, appLogger).RegisterRoutes(apiV1.Group("/chat"))
	delivery.NewContactHandler(contactSvc, appLogger).RegisterRoutes(apiV1.Group("/contact"))
	delivery.NewPriceHandler(priceSvc, appLogger).RegisterRoutes(apiV1.Group("/prices"))
	delivery.NewNotificationHandler(notificationSvc, appLogger).RegisterRoutes(apiV1.Group("/notifications"))
	delivery.NewNewsHandler(newsSvc, appLogger).RegisterRoutes(apiV1.Group("/news"))
	delivery.NewExecutionHistoryHandler(historySvc, appLogger).RegisterRoutes(apiV1.Group("/executions"))

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Liirat News API
// @version 1.0
// @description Economic calendar, alerts, watchlist and market data for Liirat clients.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "api-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-api.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing api-service CLI: %s\n", err)
		os.Exit(1)
	}
}
