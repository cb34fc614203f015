package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aegisrules/aegis/internal/config"
	"github.com/aegisrules/aegis/internal/database"
	"github.com/aegisrules/aegis/internal/logger"
	"github.com/aegisrules/aegis/internal/paging"
	"github.com/aegisrules/aegis/internal/server"
	"github.com/aegisrules/aegis/internal/services"
	"github.com/aegisrules/aegis/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Log to both stdout and a rotated file next to the database
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Fatalf("ensure log directory: %v", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "aegisd.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))

	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("open database")
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}

	notifier := services.NewNotificationService(db, cfg.NotifyURLs)
	codec := paging.NewCodec(cfg.PageTokenSecret)
	rulesets := services.NewRulesetService(db, codec, cfg.MaxRulesets, cfg.MaxSourceBytes)
	retention, err := services.NewRetentionService(db, rulesets, notifier, cfg.RetentionSchedule, cfg.RetentionDays)
	if err != nil {
		logger.Log().WithError(err).Fatal("configure retention")
	}
	retention.Start()
	defer retention.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().WithField("port", cfg.HTTPPort).Info("listening")
	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Fatal("server error")
	}
}
