package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/taskhub-api/internal/api/middleware"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds what NewRouter needs.
type RouterConfig struct {
	Users  service.UserService
	Tasks  service.TaskService
	Logger *slog.Logger

	// Metrics enables Prometheus instrumentation. Gatherer serves
	// MetricsPath and Registerer receives the HTTP collectors; both default
	// to the prometheus default registry.
	Metrics     bool
	MetricsPath string
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
}

// NewRouter creates the HTTP handler with every route and middleware.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))

	if cfg.Metrics {
		reg, gatherer := cfg.Registerer, cfg.Gatherer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		m, err := apiMiddleware.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		r.Use(m.Handler)

		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	userHandler := NewUserHandler(cfg.Users, cfg.Logger)
	taskHandler := NewTaskHandler(cfg.Tasks, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Put("/{id}", userHandler.UpdateUser)
			r.Patch("/{id}", userHandler.PatchUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.Get("/user/{userId}", taskHandler.ListTasksByUser)
			r.Delete("/user/{userId}", taskHandler.DeleteTasksByUser)
			r.Get("/{id}", taskHandler.GetTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Patch("/{id}", taskHandler.PatchTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
			r.Post("/{id}/start", taskHandler.StartTask)
			r.Post("/{id}/complete", taskHandler.CompleteTask)
			r.Post("/{id}/cancel", taskHandler.CancelTask)
			r.Put("/{id}/status", taskHandler.ChangeTaskStatus)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			cfg.Logger.Error("failed to write health check response", "error", err)
		}
	})

	return r, nil
}
