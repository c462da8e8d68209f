package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Haleralex/coinledger/internal/config"
	"github.com/Haleralex/coinledger/internal/container"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	app := container.New(cfg)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Initialize(initCtx); err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}

	if err := app.Run(); err != nil {
		app.Logger().Error("Server error", slog.String("error", err.Error()))
		shutdown(app)
		os.Exit(1)
	}

	shutdown(app)
	app.Logger().Info("Server stopped gracefully")
}

func shutdown(app *container.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		app.Logger().Error("Shutdown error", slog.String("error", err.Error()))
	}
}
