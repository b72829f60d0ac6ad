package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/stockyard/stockd/internal/config"
	"github.com/stockyard/stockd/internal/infra/database"
	"github.com/stockyard/stockd/internal/infra/repository"
	"github.com/stockyard/stockd/internal/interface/rest"
	"github.com/stockyard/stockd/internal/service"
	"github.com/stockyard/stockd/internal/telemetry"
	"github.com/stockyard/stockd/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, "stockd", conf.Server.TraceEndpoint, conf.Server.EnableTrace)
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdown(ctx)

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	batchRepo := repository.NewBatchRepository(db)
	stockCache := repository.NewStockCache(mc)
	signal := service.NewSignalService(rdb)

	allocation := usecase.NewAllocationUsecase(batchRepo, stockCache, signal)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("stockd"))
	}

	handler := rest.NewHandler(conf.Service, allocation, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Service.ListenAddr))
}
