package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	"github.com/bryanwahyu/pullup-coach/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/pullup-coach/internal/application/analysis"
	appchat "github.com/bryanwahyu/pullup-coach/internal/application/chat"
	appfeedback "github.com/bryanwahyu/pullup-coach/internal/application/feedback"
	apphistory "github.com/bryanwahyu/pullup-coach/internal/application/history"
	appmedia "github.com/bryanwahyu/pullup-coach/internal/application/media"
	"github.com/bryanwahyu/pullup-coach/internal/application/training"
	"github.com/bryanwahyu/pullup-coach/internal/config"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/domain/feedback"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
	"github.com/bryanwahyu/pullup-coach/internal/domain/plans"
	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
	"github.com/bryanwahyu/pullup-coach/internal/infra/ai/dify"
	openaiagent "github.com/bryanwahyu/pullup-coach/internal/infra/ai/openai"
	"github.com/bryanwahyu/pullup-coach/internal/infra/auth"
	"github.com/bryanwahyu/pullup-coach/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/pullup-coach/internal/infra/db/mysql"
	"github.com/bryanwahyu/pullup-coach/internal/infra/db/postgres"
	"github.com/bryanwahyu/pullup-coach/internal/infra/httpserver"
	"github.com/bryanwahyu/pullup-coach/internal/infra/logger"
	"github.com/bryanwahyu/pullup-coach/internal/infra/mediatool"
	"github.com/bryanwahyu/pullup-coach/internal/infra/queue"
	"github.com/bryanwahyu/pullup-coach/internal/infra/redisstore"
	"github.com/bryanwahyu/pullup-coach/internal/infra/storage"
	"github.com/bryanwahyu/pullup-coach/internal/middleware"
)

// repositories groups the per-driver persistence adapters.
type repositories struct {
	users    users.Repository
	logins   users.LoginRepository
	history  history.Repository
	plans    plans.Repository
	feedback feedback.Repository
	videos   media.Repository
}

func main() {
	// path config.yaml
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

	if err := run(cfg, zl); err != nil {
		zl.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	db, repos, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	tasks := redisstore.NewTaskStore(rdb, cfg.Redis.KeyPrefix, cfg.Analysis.TaskTTL)
	conversations := redisstore.NewConversationStore(rdb, cfg.Redis.KeyPrefix, cfg.Analysis.TaskTTL)

	jobs := queue.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, queue.Options{
		Queue:      cfg.Queue.Name,
		JobTimeout: cfg.Analysis.JobTimeout,
		Retention:  cfg.Analysis.TaskTTL,
		Log:        zl.Named("queue"),
	})
	defer jobs.Close()

	uploads, err := storage.NewLocal(cfg.Upload.Dir)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	videoStore, thumbStore, err := openMediaStores(ctx, cfg)
	if err != nil {
		return err
	}
	prober, err := mediatool.New()
	if err != nil {
		// library tetap bisa dibaca, hanya upload admin yang gagal
		zl.Warn("ffmpeg not available, media uploads will fail", zap.Error(err))
		prober = &mediatool.FFmpeg{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	clock := application.SystemClock{}

	accountSvc := &accounts.Service{
		Users:  repos.users,
		Logins: repos.logins,
		Tokens: tokens,
		Clock:  clock,
		Log:    zl.Named("accounts"),
	}
	if err := accountSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	analysisSvc := &appanalysis.Service{
		Tasks:             tasks,
		Queue:             jobs,
		Videos:            uploads,
		History:           repos.history,
		Conversations:     conversations,
		Clock:             clock,
		Log:               zl.Named("analysis"),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		ScoreMarker:       cfg.Analysis.ScoreMarker,
	}
	chatSvc := &appchat.Service{
		Agent:         newAgent(cfg, conversations),
		Conversations: conversations,
		Log:           zl.Named("chat"),
	}
	mediaSvc := &appmedia.Service{
		Repo:              repos.videos,
		Videos:            videoStore,
		Thumbnails:        thumbStore,
		Prober:            prober,
		Clock:             clock,
		Log:               zl.Named("media"),
		TempDir:           os.TempDir(),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go limiter.Cleanup(stopCleanup)

	handler := httpserver.NewRouter(httpserver.Deps{
		Accounts: accountSvc,
		Analysis: analysisSvc,
		Chat:     chatSvc,
		History:  &apphistory.Service{Repo: repos.history},
		Training: &training.Service{Plans: repos.plans, Clock: clock, Log: zl.Named("training")},
		Feedback: &appfeedback.Service{Repo: repos.feedback, Clock: clock},
		Media:    mediaSvc,
		Tokens:   tokens,
		Users:    repos.users,
		Health: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
			"redis":    &redisstore.HealthChecker{Client: rdb},
		},
		RateLimiter:    limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Log:            zl.Named("http"),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", addr), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	zl.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx2)
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, *repositories, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
	}

	if cfg.Database.Migrate {
		if err := migrations.Up(ctx, db, cfg.Database.Driver); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	if cfg.Database.Driver == "postgres" {
		return db, &repositories{
			users:    postgres.NewUserRepository(db),
			logins:   postgres.NewLoginRepository(db),
			history:  postgres.NewHistoryRepository(db),
			plans:    postgres.NewPlanRepository(db),
			feedback: postgres.NewFeedbackRepository(db),
			videos:   postgres.NewVideoRepository(db),
		}, nil
	}
	return db, &repositories{
		users:    mysqlp.NewUserRepository(db),
		logins:   mysqlp.NewLoginRepository(db),
		history:  mysqlp.NewHistoryRepository(db),
		plans:    mysqlp.NewPlanRepository(db),
		feedback: mysqlp.NewFeedbackRepository(db),
		videos:   mysqlp.NewVideoRepository(db),
	}, nil
}

func openMediaStores(ctx context.Context, cfg *config.Config) (media.ObjectStore, media.ObjectStore, error) {
	if cfg.Media.Backend == "minio" {
		store, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("minio init error: %w", err)
		}
		return store.WithPrefix("example/video"), store.WithPrefix("example/thumbnail"), nil
	}

	videos, err := storage.NewLocal(cfg.Media.VideoDir)
	if err != nil {
		return nil, nil, err
	}
	thumbs, err := storage.NewLocal(cfg.Media.ThumbnailDir)
	if err != nil {
		return nil, nil, err
	}
	return videos, thumbs, nil
}

func newAgent(cfg *config.Config, history chat.HistoryStore) chat.Agent {
	if cfg.Chat.Provider == "openai" {
		oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		return openaiagent.NewClientWithConfig(oc, cfg.OpenAI.Model, cfg.OpenAI.SystemPrompt, history)
	}
	return dify.NewClient(cfg.Chat.BaseURL, cfg.Chat.APIKey)
}
