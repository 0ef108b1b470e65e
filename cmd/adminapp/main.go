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
	"github.com/tcc/restaurant-services/internal/config"
	"github.com/tcc/restaurant-services/internal/handler"
	"github.com/tcc/restaurant-services/internal/metrics"
)

func main() {
	conf := config.NewAdminApp()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	sink := metrics.NewPrometheus("adminapp", prometheus.DefaultRegisterer)
	adminAppHandler := handler.NewAdminAppHandler(logger, sink)

	app := app.New(logger, conf.HTTP, conf.Cors)
	app.SetHTTPHandlers(adminAppHandler)

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
