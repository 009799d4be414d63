package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/pullup-coach/internal/application/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/config"
	"github.com/bryanwahyu/pullup-coach/internal/infra/executor/pose"
	"github.com/bryanwahyu/pullup-coach/internal/infra/logger"
	"github.com/bryanwahyu/pullup-coach/internal/infra/queue"
	"github.com/bryanwahyu/pullup-coach/internal/infra/scheduler"
	"github.com/bryanwahyu/pullup-coach/internal/infra/storage"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zl.Sync()

	if len(cfg.Analysis.FrontCommand) == 0 || len(cfg.Analysis.SideCommand) == 0 {
		zl.Fatal("analysis.frontCommand and analysis.sideCommand are required for the worker")
	}

	// folder upload dibagi dengan API, worker hanya membaca dan membersihkan
	uploads, err := storage.NewLocal(cfg.Upload.Dir)
	if err != nil {
		zl.Fatal("upload dir", zap.Error(err))
	}

	runner := pose.NewRunner(cfg.Analysis.FrontCommand, cfg.Analysis.SideCommand, cfg.AnalyzerTimeout())
	handler := &queue.Handler{
		Processor: &appanalysis.Processor{
			Front:         runner,
			Side:          runner,
			ProjectFormat: cfg.Analysis.ProjectFormat,
			Log:           zl.Named("processor"),
		},
		Log: zl.Named("worker"),
	}

	mux := asynq.NewServeMux()
	handler.Register(mux)

	srv := queue.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Queue.Name, cfg.Queue.Concurrency, zl.Named("asynq"))

	cleanup, err := scheduler.Start(cfg.Cleanup.Schedule,
		scheduler.CleanupJob(uploads, cfg.Analysis.TaskTTL, zl.Named("cleanup"), nil),
		zl.Named("cron"))
	if err != nil {
		zl.Fatal("cleanup scheduler", zap.Error(err))
	}

	if err := srv.Start(mux); err != nil {
		zl.Fatal("worker start", zap.Error(err))
	}
	zl.Info("worker started",
		zap.String("queue", cfg.Queue.Name),
		zap.Int("concurrency", cfg.Queue.Concurrency))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	zl.Info("shutdown signal received, stopping gracefully...")

	<-cleanup.Stop().Done()
	srv.Shutdown()
}
