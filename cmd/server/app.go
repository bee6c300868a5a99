package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub-api/internal/api"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/memory"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/platform/rediscache"
	"github.com/phrazzld/taskhub-api/internal/platform/sqlite"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// application holds the shared dependencies so they can be closed together
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// At most one of db and gormDB is set, depending on the driver.
	db     *sql.DB
	gormDB *gorm.DB
	redis  *redis.Client

	registry *prometheus.Registry

	userService service.UserService
	taskService service.TaskService
}

// backend is the store set one driver provides.
type backend struct {
	users store.UserStore
	tasks store.TaskStore
	tx    store.Transactor
}

// newApplication connects the configured backend and cache and builds the
// services. On error every resource opened so far is released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	if err := app.init(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	logger.Info("application initialized", "driver", cfg.Database.Driver)
	return app, nil
}

func (app *application) init(ctx context.Context) error {
	cfg := app.config

	b, err := app.openBackend(ctx)
	if err != nil {
		return err
	}

	var opts []service.Option
	if cfg.Cache.Enabled {
		cache, err := app.openCache(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithCache(cache))
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.userService = service.NewUserService(b.users, b.tasks, b.tx, app.logger, opts...)
	app.taskService = service.NewTaskService(b.tasks, b.users, app.logger, opts...)
	return nil
}

func (app *application) openBackend(ctx context.Context) (backend, error) {
	cfg := app.config.Database
	switch cfg.Driver {
	case config.DriverMemory:
		st := memory.NewStore()
		app.logger.Warn("using in-memory storage; data is lost on restart")
		return backend{users: st.Users(), tasks: st.Tasks(), tx: st}, nil

	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg, app.logger)
		if err != nil {
			return backend{}, err
		}
		app.db = db
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db, "up", app.logger); err != nil {
				return backend{}, err
			}
		}
		return backend{
			users: postgres.NewPostgresUserStore(db, app.logger),
			tasks: postgres.NewPostgresTaskStore(db, app.logger),
			tx:    postgres.NewTransactor(db, app.logger),
		}, nil

	case config.DriverSQLite:
		db, err := openSQLite(ctx, cfg, app.logger)
		if err != nil {
			return backend{}, err
		}
		app.gormDB = db
		if cfg.AutoMigrate {
			if err := sqlite.Migrate(ctx, db); err != nil {
				return backend{}, err
			}
		}
		return backend{
			users: sqlite.NewUserStore(db, app.logger),
			tasks: sqlite.NewTaskStore(db, app.logger),
			tx:    sqlite.NewTransactor(db, app.logger),
		}, nil
	}
	return backend{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func (app *application) openCache(ctx context.Context) (*rediscache.Cache, error) {
	cfg := app.config.Cache
	rdb, err := rediscache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	app.redis = rdb
	app.logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return rediscache.New(rdb, rediscache.DefaultKeyPrefix, cfg.TTL, app.logger)
}

// router builds the HTTP handler over the application's services.
func (app *application) router() (http.Handler, error) {
	return api.NewRouter(api.RouterConfig{
		Users:       app.userService,
		Tasks:       app.taskService,
		Logger:      app.logger,
		Metrics:     app.config.Metrics.Enabled,
		MetricsPath: app.config.Metrics.Path,
		Registerer:  app.registry,
		Gatherer:    app.registry,
	})
}

// cleanup closes every connection the application opened.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	if app.gormDB != nil {
		if err := sqlite.Close(app.gormDB); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
