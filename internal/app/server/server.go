package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kepayroll/internal/domain/audit"
	"kepayroll/internal/domain/payroll"
	"kepayroll/internal/domain/statutory"
	"kepayroll/internal/platform/config"
	"kepayroll/internal/platform/db"
	"kepayroll/internal/platform/jobs"
	"kepayroll/internal/platform/logging"
	"kepayroll/internal/platform/metrics"
	"kepayroll/internal/transport/http/api"
	audithandler "kepayroll/internal/transport/http/handlers/audit"
	payrollhandler "kepayroll/internal/transport/http/handlers/payroll"
	"kepayroll/internal/transport/http/middleware"
	"kepayroll/migrations"
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Registry *statutory.Registry
	Audit    *audit.Service
	Payroll  *payroll.Service
	Metrics  *metrics.Collector
	Jobs     *jobs.Service
	Router   http.Handler

	source statutory.Source
}

// New builds the application from cfg: rule source, registry, payroll
// service and router. The caller owns Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := statutory.ExemptionPolicyByName(cfg.ExemptionPolicy)
	if err != nil {
		return nil, err
	}
	reliefMode, err := statutory.ParseReliefMode(cfg.ReliefMode)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Metrics: metrics.New(), Jobs: jobs.New()}
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		app.DB = pool
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		store := statutory.NewPGStore(pool)
		app.Audit = audit.New(pool)
		if err := seedRuleSets(ctx, store, app.Audit); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
		app.source = store
	case cfg.RulesFile != "":
		app.source = statutory.FileSource{Path: cfg.RulesFile}
	default:
		app.source = statutory.StaticSource{statutory.DefaultRuleSet()}
	}

	sets, err := app.source.Load(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load rule sets: %w", err)
	}
	if app.Registry, err = statutory.NewRegistry(sets...); err != nil {
		app.Close()
		return nil, err
	}

	app.Payroll = payroll.NewService(app.Registry,
		payroll.WithExemptionPolicy(policy),
		payroll.WithReliefMode(reliefMode),
		payroll.WithWorkers(cfg.RegisterWorkers),
	)
	app.Router = app.routes()

	slog.Info("rule sets loaded",
		"count", len(sets),
		"exemptionPolicy", policy.Name(),
		"reliefMode", reliefMode,
	)
	return app, nil
}

// seedRuleSets stores the built-in rule set when the table is empty.
func seedRuleSets(ctx context.Context, store *statutory.PGStore, trail *audit.Service) error {
	sets, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if len(sets) > 0 {
		return nil
	}
	set := statutory.DefaultRuleSet()
	if err := store.Save(ctx, set); err != nil {
		return err
	}
	return trail.Record(ctx, audit.Entry{Version: set.Version, Action: audit.ActionSeeded, Source: "server", After: set})
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// ReloadRules refreshes the registry from the configured source. The
// previous snapshot stays in force when the reload fails.
func (a *App) ReloadRules(ctx context.Context) error {
	err := a.Registry.Reload(ctx, a.source)
	a.Metrics.RecordRuleReload(err)
	return err
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.Registry.Active(time.Now()); err != nil {
			http.Error(w, "no rule set in force", http.StatusServiceUnavailable)
			return
		}
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed", middleware.GetRequestID(r.Context()))
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, api.CodeNotFound, "resource not found", middleware.GetRequestID(r.Context()))
		})

		payrollHandler := payrollhandler.NewHandler(a.Payroll, a.Registry, a.Metrics)
		payrollHandler.RegisterRoutes(r)
		if a.Audit != nil {
			audithandler.NewHandler(a.Audit).RegisterRoutes(r)
		}
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to the configured shutdown timeout.
func Run() error {
	cfg := config.Load()
	logger := logging.Setup(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Every(ctx, "rules.reload", cfg.RulesReloadEvery, app.ReloadRules)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	app.Jobs.Wait()
	return nil
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.staticPath, h.indexPath)
	if _, statErr := os.Stat(index); statErr != nil {
		http.NotFound(w, r)
		return
	}
	if err == nil || os.IsNotExist(err) {
		http.ServeFile(w, r, index)
		return
	}

	http.NotFound(w, r)
}
