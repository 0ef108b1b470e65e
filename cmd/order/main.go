package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcc/restaurant-services/internal/app"
	"github.com/tcc/restaurant-services/internal/client"
	"github.com/tcc/restaurant-services/internal/config"
	"github.com/tcc/restaurant-services/internal/handler"
	"github.com/tcc/restaurant-services/internal/metrics"
	"github.com/tcc/restaurant-services/internal/postgres"
	"github.com/tcc/restaurant-services/internal/repo"
	"github.com/tcc/restaurant-services/internal/scheduler"
	"github.com/tcc/restaurant-services/internal/service"
	"github.com/tcc/restaurant-services/pkg/cache"
	"github.com/tcc/restaurant-services/pkg/trm"
)

func main() {
	conf := config.NewOrder()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewOrderRepo(db)
	txManager := trm.NewManager(db)
	nameCache := cache.NewNameCache(conf.Cache.Capacity, conf.Cache.TTL)
	products := client.NewProductClient(logger, conf.ProductAPI)
	sink := metrics.NewPrometheus("order", prometheus.DefaultRegisterer)

	orderService := service.NewOrderService(
		logger, txManager, orderRepo, products, nameCache, sink, conf.Scanner.MaxAge)
	scanner := scheduler.New(logger, orderService, conf.Scanner.Interval, conf.Scanner.MaxAge)

	orderHandler := handler.NewOrderHandler(logger, orderService, scanner)

	app := app.New(logger, conf.HTTP, conf.Cors)
	app.SetHTTPHandlers(orderHandler)
	app.SetStarters(nameCache, scanner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	app.Stop()
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
