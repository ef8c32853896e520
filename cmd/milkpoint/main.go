package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"

	"milkpoint/internal/config"
	"milkpoint/internal/events"
	"milkpoint/internal/http/handlers"
	applog "milkpoint/internal/log"
	"milkpoint/internal/repos"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Optional file logging
	var sinks []io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Warn(nil, "log.file.open.fail", err, map[string]any{"path": cfg.LogFile})
		} else {
			defer f.Close()
			sinks = append(sinks, f)
		}
	}
	if err := applog.Init(cfg.LogLevel, sinks...); err != nil {
		applog.Warn(nil, "log.level.invalid", err, map[string]any{"level": cfg.LogLevel})
	}
	defer applog.Sync()
	applog.Info(nil, "config.loaded", cfg.Fields())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		applog.Error(nil, "db.open.fail", err, nil)
		return err
	}
	defer db.Close()

	sqlStore := repos.NewSQLStore(db)
	if cfg.SeedDemo {
		if _, err := sqlStore.SeedDemo(ctx); err != nil {
			applog.Error(nil, "db.seed.fail", err, nil)
			return err
		}
	}
	st, err := sqlStore.Open(ctx)
	if err != nil {
		applog.Error(nil, "store.load.fail", err, nil)
		return err
	}

	var pub events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 1024)
		kp.Start(ctx)
		defer kp.Close()
		pub = kp
	}

	deps := handlers.NewDeps(db, st, cfg, pub)
	app := handlers.NewApp(deps, logger.New())

	go func() {
		<-ctx.Done()
		applog.Info(nil, "server.shutdown", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			applog.Error(nil, "server.shutdown.fail", err, nil)
		}
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Error(nil, "server.listen.fail", err, nil)
		return err
	}
	return nil
}
