package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/services/printing"
	"restaurant-pos/internal/services/reports"
	"restaurant-pos/internal/services/terminal"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (pos-server, print-worker)")
		configPath = flag.String("config", "config.toml", "Path to config file")
		port       = flag.Int("port", 0, "HTTP port override (pos-server mode)")
		workerName = flag.String("worker-name", "printer-1", "Worker name (print-worker mode)")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": cfg.Server.Port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "pos-server":
		if err := runPOSServer(ctx, cfg, log); err != nil {
			log.Error("service_failed", "POS server failed", requestID, err, nil)
			os.Exit(1)
		}
	case "print-worker":
		if err := runPrintWorker(ctx, cfg, log, *workerName, *prefetch); err != nil {
			log.Error("service_failed", "Print worker failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runPOSServer runs the HTTP API: terminal sessions, orders and reports.
func runPOSServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	mq, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer mq.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
	}

	publisher := messaging.NewPublisher(mq, log)
	dispatcher := printing.NewDispatcher(publisher, log)

	orderService := order.NewService(order.NewRepository(db), rdb, log)
	orderHandler := order.NewHandler(orderService, dispatcher, log)

	reportService := reports.NewService(db, log)
	reportHandler := reports.NewHandler(reportService, log)

	sessionManager := terminal.NewManager(orderService, dispatcher, log)
	terminalHandler := terminal.NewHandler(sessionManager, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.Server.RateLimit),
			Burst:     cfg.Server.RateBurst,
			ExpiresIn: 3 * time.Minute,
		})))

	orderHandler.Register(e)
	reportHandler.Register(e)
	terminalHandler.Register(e)

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- e.Start(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// runPrintWorker runs the ticket printing worker.
func runPrintWorker(ctx context.Context, cfg *config.Config, log *logger.Logger, workerName string, prefetch int) error {
	mq, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer mq.Close()

	kotConsumer := messaging.NewConsumer(mq, log, messaging.KOTQueue, workerName+"-kot", prefetch)
	receiptConsumer := messaging.NewConsumer(mq, log, messaging.ReceiptQueue, workerName+"-receipt", prefetch)

	worker := printing.NewWorker(workerName, kotConsumer, receiptConsumer, os.Stdout, log)
	return worker.Start(ctx)
}
