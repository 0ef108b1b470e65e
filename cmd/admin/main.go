package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/internal/admin/notify"
	"github.com/tcc/restaurant-services/internal/app"
	"github.com/tcc/restaurant-services/internal/config"
	"github.com/tcc/restaurant-services/internal/handler"
)

func main() {
	conf := config.NewAdmin()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	registry := admin.NewRegistry(logger)

	if conf.Discord.WebhookURL != "" {
		registry.Subscribe(notify.NewDiscord(logger, conf.Discord))
		logger.Info("discord notifier enabled")
	}
	if conf.Twilio.AccountSID != "" {
		registry.Subscribe(notify.NewWhatsApp(logger, conf.Twilio))
		logger.Info("whatsapp notifier enabled")
	}

	poller := admin.NewPoller(logger, registry, conf.Poller)
	adminHandler := handler.NewAdminHandler(logger, registry)

	app := app.New(logger, conf.HTTP, conf.Cors)
	app.SetHTTPHandlers(adminHandler)
	app.SetStarters(poller)

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
