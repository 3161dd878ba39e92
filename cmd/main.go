package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vendora/order-service/internal/app"
	"github.com/vendora/order-service/internal/config"
	"github.com/vendora/order-service/internal/events"
	"github.com/vendora/order-service/internal/handler"
	"github.com/vendora/order-service/internal/postgres"
	"github.com/vendora/order-service/internal/repo"
	"github.com/vendora/order-service/internal/service"
	"github.com/vendora/order-service/pkg/cache"
	"github.com/vendora/order-service/pkg/trm"

	_ "github.com/vendora/order-service/docs"

	"github.com/joho/godotenv"
)

// @title           Order Orchestration Service API
// @version         1.0
// @description     Transactional order creation with atomic inventory reservation
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewOrderRepo(db)
	productRepo := repo.NewProductRepo(db)
	cartRepo := repo.NewCartRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	publisher := events.NewKafkaPublisher(conf.Kafka)
	defer publisher.Close()

	orderService := service.NewOrderService(
		logger, txManager, orderRepo, productRepo, cartRepo, orderCache, publisher)

	handler.RegisterMetrics()
	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)
	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(kafkaHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	orderCache.StartJanitor(ctx)

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
