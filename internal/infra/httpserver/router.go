package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/pullup-coach/internal/application/analysis"
	appmedia "github.com/bryanwahyu/pullup-coach/internal/application/media"
	"github.com/bryanwahyu/pullup-coach/internal/application/training"
	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/domain/feedback"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
	"github.com/bryanwahyu/pullup-coach/internal/domain/plans"
	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
	"github.com/bryanwahyu/pullup-coach/internal/middleware"
)

type AccountService interface {
	Register(ctx context.Context, cmd accounts.RegisterCommand) (int64, error)
	Login(ctx context.Context, username, password string) (*accounts.LoginResult, error)
	Profile(ctx context.Context, userID int64) (*users.User, error)
	Refresh(ctx context.Context, userID int64) (string, error)
	ChangePassword(ctx context.Context, userID int64, password string) error
	UpdateProfile(ctx context.Context, userID int64, cmd accounts.ProfileCommand) error
	ListUsers(ctx context.Context) ([]*users.User, error)
	LoginRecords(ctx context.Context) ([]*users.LoginRecord, error)
	UserLoginRecords(ctx context.Context, userID int64) ([]*users.LoginRecord, error)
}

type AnalysisService interface {
	Submit(ctx context.Context, cmd appanalysis.SubmitCommand) (analysis.TaskID, error)
	Poll(ctx context.Context, userID int64, id analysis.TaskID) (analysis.View, error)
	Commit(ctx context.Context, userID int64, message string) (int64, error)
	Clear(ctx context.Context, userID int64) error
}

type ChatService interface {
	Relay(ctx context.Context, userID int64, message string, emit func(chat.Chunk) error) error
}

type HistoryService interface {
	List(ctx context.Context, userID int64) ([]*history.Record, error)
	Detail(ctx context.Context, userID, id int64) (*history.Record, error)
	All(ctx context.Context) ([]*history.Record, error)
}

type TrainingService interface {
	Create(ctx context.Context, userID int64, cmd training.CreateCommand) (*plans.Plan, error)
	List(ctx context.Context, userID int64) ([]*plans.Plan, error)
	Update(ctx context.Context, userID, id int64, patch plans.Patch) (*plans.Plan, error)
	Delete(ctx context.Context, userID, id int64) error
	TrainedDates(ctx context.Context, userID int64, f plans.DateFilter) ([]string, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, userID int64, content, email string) (int64, error)
	List(ctx context.Context) ([]*feedback.Feedback, error)
}

type MediaService interface {
	Upload(ctx context.Context, cmd appmedia.UploadCommand) (*media.Video, error)
	List(ctx context.Context) ([]*media.Video, error)
	OpenVideo(ctx context.Context, name string) (media.Object, error)
	OpenThumbnail(ctx context.Context, name string) (media.Object, error)
}

// Deps is everything the router needs; nil optional parts are skipped.
type Deps struct {
	Accounts AccountService
	Analysis AnalysisService
	Chat     ChatService
	History  HistoryService
	Training TrainingService
	Feedback FeedbackService
	Media    MediaService

	Tokens middleware.TokenParser
	Users  middleware.UserLoader

	Health         map[string]middleware.HealthChecker
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	MaxUploadBytes int64
	Log            *zap.Logger
}

type Router struct {
	accounts AccountService
	analysis AnalysisService
	chat     ChatService
	history  HistoryService
	training TrainingService
	feedback FeedbackService
	media    MediaService

	maxUpload int64
	log       *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		accounts:  d.Accounts,
		analysis:  d.Analysis,
		chat:      d.Chat,
		history:   d.History,
		training:  d.Training,
		feedback:  d.Feedback,
		media:     d.Media,
		maxUpload: d.MaxUploadBytes,
		log:       log,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = 100 << 20
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// ops
	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(d.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	auth := middleware.JWTAuth(d.Tokens, d.Users)
	limited := func(h http.Handler) http.Handler { return h }
	if d.RateLimiter != nil {
		limited = middleware.RateLimit(d.RateLimiter)
	}

	mux.Route("/auth", func(rt chi.Router) {
		rt.Use(limited)
		rt.Post("/login", r.wrap(r.handleLogin))
		rt.Post("/register", r.wrap(r.handleRegister))

		rt.Group(func(rt chi.Router) {
			rt.Use(auth)
			rt.Get("/profile", r.wrap(r.handleProfile))
			rt.Put("/change_password", r.wrap(r.handleChangePassword))
			rt.Post("/change_password", r.wrap(r.handleChangePassword))
			rt.Put("/update_simple_profile", r.wrap(r.handleUpdateProfile))
			rt.Post("/update_simple_profile", r.wrap(r.handleUpdateProfile))
			rt.Get("/refresh", r.wrap(r.handleRefresh))
			rt.Post("/refresh", r.wrap(r.handleRefresh))
			rt.Get("/login_records", r.wrap(r.handleMyLoginRecords))
		})
	})

	mux.Route("/api", func(rt chi.Router) {
		// file media publik, dipakai langsung oleh tag <video>/<img>
		rt.Get("/media/videos", r.wrap(r.handleListVideos))
		rt.Get("/video/{filename}", r.wrap(r.handleServeVideo))
		rt.Get("/thumbnail/{filename}", r.wrap(r.handleServeThumbnail))

		rt.Group(func(rt chi.Router) {
			rt.Use(auth)
			rt.Use(limited)

			rt.Post("/upload", r.wrap(r.handleUpload))
			rt.Get("/evaluate/result/{task_id}", r.wrap(r.handleResult))
			rt.Post("/save", r.wrap(r.handleSave))
			rt.Get("/clear", r.wrap(r.handleClear))
			rt.Post("/clear", r.wrap(r.handleClear))
			rt.Post("/chat", r.wrap(r.handleChat))

			rt.Get("/history", r.wrap(r.handleHistory))
			rt.Get("/history/detail/{id}", r.wrap(r.handleHistoryDetail))

			rt.Post("/training-plan", r.wrap(r.handleCreatePlan))
			rt.Get("/training-plan/list", r.wrap(r.handleListPlans))
			rt.Get("/training-plan/trained-dates", r.wrap(r.handleTrainedDates))
			rt.Put("/training-plan/{id}", r.wrap(r.handleUpdatePlan))
			rt.Delete("/training-plan/{id}", r.wrap(r.handleDeletePlan))

			rt.Post("/feedback", r.wrap(r.handleFeedback))

			rt.Route("/admin", func(rt chi.Router) {
				rt.Use(middleware.RequireAdmin)
				rt.Post("/media/upload", r.wrap(r.handleMediaUpload))
				rt.Get("/feedback_all", r.wrap(r.handleAllFeedback))
				rt.Get("/users", r.wrap(r.handleUsers))
				rt.Get("/login_records", r.wrap(r.handleLoginRecords))
				rt.Get("/history", r.wrap(r.handleAllHistory))
			})
		})
	})

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, "not found", nil)
	})
	return mux
}

// currentUser is only called behind JWTAuth.
func currentUser(req *http.Request) *users.User {
	u, _ := middleware.UserFromContext(req.Context())
	return u
}

// formatTime is the display layout used by history and admin views.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
