package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily_insight_bot/internal/app"
	"daily_insight_bot/internal/infra/config"
	icontent "daily_insight_bot/internal/infra/content"
	idb "daily_insight_bot/internal/infra/database"
	"daily_insight_bot/internal/infra/httpapi"
	"daily_insight_bot/internal/infra/logger"
	"daily_insight_bot/internal/infra/scheduler"
	"daily_insight_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Daily Insight Bot starting...")

	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	appLogger := logger.Get()
	mainLogger.Printf("INFO: Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Println("INFO: Database connection established successfully.")

	// Initialize Repositories
	interestRepo := idb.NewPostgresInterestRepository(db)
	mainLogger.Println("INFO: Interest repository initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := appLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Unhandled telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	// Initialize Services
	messengerClient := telegram.NewTelebotAdapter(bot, logger.Component("telegram_client"))
	contentSource := icontent.NewStaticSource(time.Now().UnixNano())
	scoringService := app.NewScoringService(interestRepo, cfg.InterestHalfLife, logger.Component("scoring"))
	deliveryService := app.NewDeliveryService(
		interestRepo,
		scoringService,
		contentSource,
		messengerClient,
		cfg.DeliveryConcurrency,
		logger.Component("delivery"),
	)
	mainLogger.Println("INFO: Scoring and delivery services initialized.")

	// Register Handlers
	botCtx, botCancel := context.WithCancel(context.Background())
	defer botCancel()
	telegram.RegisterBotHandlers(botCtx, bot, messengerClient, scoringService, deliveryService, contentSource, logger.Component("bot_handlers"))
	mainLogger.Println("INFO: Bot handlers registered.")

	// Initialize DeliveryScheduler
	schedulerLogger := log.New(os.Stdout, "SCHEDULER: ", log.LstdFlags|log.Lshortfile)
	deliveryScheduler := scheduler.NewDeliveryScheduler(deliveryService, schedulerLogger, cfg.CronSpecDaily, cfg.DeliveryRunTimeout)
	deliveryScheduler.Start()

	// Initialize HTTP trigger API
	triggerHandler := httpapi.NewTriggerHandler(
		deliveryService,
		cfg.TriggerSecret,
		cfg.AllowUnauthenticatedTrigger,
		cfg.DeliveryRunTimeout,
		logger.Component("trigger_api"),
	)
	apiApp := httpapi.NewApp(triggerHandler)
	go func() {
		if err := apiApp.Listen(cfg.HTTPListenAddr); err != nil {
			mainLogger.Fatalf("FATAL: HTTP API server failed: %v", err)
		}
	}()
	mainLogger.Printf("INFO: HTTP trigger API listening on %s", cfg.HTTPListenAddr)

	mainLogger.Println("INFO: Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Println("INFO: Shutting down application...")
	deliveryScheduler.Stop()
	botCancel()
	bot.Stop()
	if err := apiApp.Shutdown(); err != nil {
		mainLogger.Printf("ERROR: HTTP API shutdown: %v", err)
	}
	// db.Close() is handled by defer
	mainLogger.Println("INFO: Application shut down gracefully.")
}
