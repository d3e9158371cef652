package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/health"
	"github.com/dmitrijs2005/recyclequest/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const APIPrefix = "/api/v1"

// RouterDeps are the collaborators of the HTTP router. Metrics and Health
// may be nil.
type RouterDeps struct {
	Handler     *Handler
	RequireAuth func(http.Handler) http.Handler
	Health      *health.Checker
	Metrics     *metrics.Metrics
	Logger      logging.Logger
	CORSOrigins []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(d.Logger.With("module", "http")))
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := d.Handler

	r.Get("/", h.Root)
	if d.Health != nil {
		r.Get("/health", d.Health.Liveness)
		r.Get("/health/ready", d.Health.Readiness)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/password-reset", h.RequestPasswordReset)
			r.Post("/password-reset/confirm", h.ConfirmPasswordReset)

			r.Group(func(r chi.Router) {
				r.Use(d.RequireAuth)
				r.Get("/profile", h.Profile)
				r.Put("/profile", h.UpdateProfile)
				r.Post("/refresh", h.Refresh)
				r.Post("/logout", h.Logout)
			})
		})

		r.Route("/upload", func(r chi.Router) {
			r.Use(d.RequireAuth)
			r.Post("/avatar", h.UploadAvatar)
			r.Post("/achievement-badge", h.UploadAchievementBadge)
			r.Post("/general", h.UploadGeneral)
			r.Delete("/file", h.DeleteFile)
			r.Get("/url", h.FileURL)
		})
	})

	return r
}

// requestLogger logs one line per request. Query strings are left out since
// they may carry file paths of other users.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}
