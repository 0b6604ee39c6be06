package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/procurehq/purchase-flow/internal/application/dispatcher"
	"github.com/procurehq/purchase-flow/internal/application/service"
	"github.com/procurehq/purchase-flow/internal/config"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/infrastructure/export"
	"github.com/procurehq/purchase-flow/internal/infrastructure/persistence/repository"
	httpserver "github.com/procurehq/purchase-flow/internal/interfaces/http"
	"github.com/procurehq/purchase-flow/pkg/database"
	"github.com/procurehq/purchase-flow/pkg/utils"
)

func main() {
	// Optional .env for local development
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting purchase order service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	kvLog := kvLogger{logger.Sugar()}

	orderRepo := repository.NewOrderRepository(db, logger)
	auditRepo := repository.NewAuditRepository(db, logger)

	bus := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLog))
	defer bus.Close()

	registerEventHandlers(bus, logger)

	orderService := service.NewOrderService(orderRepo, auditRepo, db, bus, kvLog)
	transitionService := service.NewTransitionService(orderRepo, auditRepo, db, bus, kvLog)
	queueService := service.NewQueueService(orderRepo, transitionService, bus, kvLog)

	exporter := export.NewQueueExporter(cfg.Export.OutputDir, logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, orderService, transitionService, queueService, exporter, kvLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// registerEventHandlers wires observability handlers onto the event bus
func registerEventHandlers(bus dispatcher.Dispatcher, logger *zap.Logger) {
	bus.SubscribeNamed(event.TypeOrderApproved, "approval-log", func(ctx context.Context, evt *event.Event) error {
		logger.Info("Order approved",
			zap.String("order_id", evt.OrderID),
			zap.String("number", evt.OrderNumber),
			zap.String("total", evt.GetPayloadString("total")))
		return nil
	})

	bus.SubscribeNamed(event.TypeOrderCancelled, "cancellation-log", func(ctx context.Context, evt *event.Event) error {
		logger.Info("Order cancelled",
			zap.String("order_id", evt.OrderID),
			zap.String("number", evt.OrderNumber),
			zap.String("reason", evt.GetPayloadString("reason")))
		return nil
	})

	bus.SubscribeNamed(event.TypeQueueBulkCompleted, "bulk-log", func(ctx context.Context, evt *event.Event) error {
		logger.Info("Bulk approval completed",
			zap.Int64("approved", evt.GetPayloadInt("approved")),
			zap.Int64("failed", evt.GetPayloadInt("failed")))
		return nil
	})
}

// kvLogger adapts a zap sugared logger to the key/value Logger interfaces
// used by the services, dispatcher, and HTTP server.
type kvLogger struct {
	sugar *zap.SugaredLogger
}

func (l kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
