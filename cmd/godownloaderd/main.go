package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/backends"
	"github.com/yaq1n0/godownloader/internal/api"
	"github.com/yaq1n0/godownloader/internal/command"
	"github.com/yaq1n0/godownloader/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "godownloaderd",
		Usage: "HTTP service wrapping yt-dlp, gallery-dl and wget/curl",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.json",
				Usage: "load configuration from `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			return serve(ctx, c.String("config"), logger)
		},
		HideHelpCommand: true,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatal(err.Error())
	}
}

func serve(ctx context.Context, configPath string, logger *zap.Logger) error {
	provider := config.NewProvider(configPath)
	// A service that cannot load its configuration must not come up.
	cfg, err := provider.Get()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	metrics.RegisterRuntimeMemStats(reg)
	go metrics.CaptureRuntimeMemStats(reg, time.Minute)

	registry := backends.NewRegistry(command.NewRunner(logger), logger)
	orch := godownloader.NewOrchestrator(registry, logger)
	server := api.NewServer(provider, orch, registry, reg, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ApplicationPort),
		Handler: server.Handler(),
	}

	errs := make(chan error, 1)
	go func() { errs <- httpServer.ListenAndServe() }()
	logger.Sugar().Infof("listening on %s, saving downloads to %s", httpServer.Addr, cfg.DownloadDirectory)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
