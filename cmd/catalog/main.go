package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/catalog"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/extensions/audit"
	"github.com/platinummonkey/catalog/pkg/extensions/datasettypes"
	"github.com/platinummonkey/catalog/pkg/extensions/orggate"
	"github.com/platinummonkey/catalog/pkg/httputil"
	"github.com/platinummonkey/catalog/pkg/middleware"
	"github.com/platinummonkey/catalog/pkg/observability"
	"github.com/platinummonkey/catalog/pkg/plugins"
	"github.com/platinummonkey/catalog/pkg/storage"
)

const (
	version      = "1.0.0"
	maxBodyBytes = 1 << 20
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Catalog server stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()
	pluginLog := setupLogger(cfg.Observability.LogLevel)

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	store, model, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	logger.WithField("type", cfg.Storage.Type).Info("Storage initialized")

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	if cached, ok := model.(*storage.CachedModel); ok {
		err := metrics.WatchCache("model",
			func() int64 { return cached.Stats().Hits },
			func() int64 { return cached.Stats().Misses })
		if err != nil {
			return err
		}
	}

	core := catalog.New(catalog.WithLogger(pluginLog), catalog.WithRecorder(metrics))
	catalog.SetDefault(core)
	access := middleware.NewAccess(core, model)

	loader := plugins.NewLoader(manifestDirs(cfg.Plugins), pluginLog)
	if err := registerFactories(loader, cfg, access, model, store, pluginLog); err != nil {
		return err
	}

	loaded, err := loader.Load(ctx, cfg.Plugins.Names)
	if err != nil {
		return fmt.Errorf("failed to load plugins: %w", err)
	}
	if err := core.Init(cfg.Auth, loaded, model); err != nil {
		return err
	}
	metrics.SetPluginCounts(core.PluginCounts())

	router := mux.NewRouter()
	router.Use(httputil.Recovery(logger.Errorf), httputil.MaxBytes(maxBodyBytes))
	router.Use(middleware.Identity(middleware.DefaultUserHeader, logger))
	if cfg.Observability.MetricsEnabled {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}
	core.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "catalog"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	checker, cleanup, err := newHealthChecker(cfg, store)
	if err != nil {
		return err
	}
	checker.Register("auth_table", true, core.Ready)

	ops := mux.NewRouter()
	observability.RegisterHealthRoutes(ops, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(ops, registry)
	}
	registerDebugRoutes(ops, core)

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: ops,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp, logger)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return store.Close()
	})
	shutdown.RegisterShutdownFunc(cleanup)

	for _, srv := range []*http.Server{server, healthServer} {
		go func(srv *http.Server) {
			logger.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Errorf("Server on %s failed", srv.Addr)
			}
		}(srv)
	}

	return shutdown.WaitForShutdown(ctx)
}

func setupLogger(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(strings.ToLower(level.String()))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func manifestDirs(cfg config.PluginsConfig) []string {
	if len(cfg.ManifestDirs) > 0 {
		return cfg.ManifestDirs
	}
	return plugins.GetDefaultManifestDirectories()
}

// registerFactories makes the bundled extensions available to the plugin list
func registerFactories(loader *plugins.Loader, cfg *config.Config, access *middleware.Access, model auth.Model, store storage.Store, log *logrus.Logger) error {
	var opts []datasettypes.Option
	if cfg.Plugins.I18nDir != "" {
		opts = append(opts, datasettypes.WithTranslations(cfg.Plugins.I18nDir))
	}

	factories := map[string]plugins.Factory{
		orggate.Name: func() (plugins.Plugin, error) {
			return orggate.New(access, model, store, log), nil
		},
		audit.Name: func() (plugins.Plugin, error) {
			return audit.New(log, 0), nil
		},
		"datasettypes": func() (plugins.Plugin, error) {
			return datasettypes.NewDatasetTypes("datasettypes", cfg.Plugins.DatasetTypes, opts...), nil
		},
	}
	for name, factory := range factories {
		if err := loader.RegisterFactory(name, factory); err != nil {
			return err
		}
	}
	return nil
}

// newHealthChecker probes the SQL database and, when configured, redis
func newHealthChecker(cfg *config.Config, store storage.Store) (*observability.HealthChecker, func(context.Context) error, error) {
	var db *sql.DB
	if s, ok := store.(*storage.SQLStore); ok {
		db = s.DB()
	}

	var rdb *redis.Client
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	checker := observability.NewHealthChecker(db, rdb, version)
	checker.Register("storage", true, store.HealthCheck)

	cleanup := func(context.Context) error {
		if rdb != nil {
			return rdb.Close()
		}
		return nil
	}
	return checker, cleanup, nil
}

// registerDebugRoutes exposes how auth functions resolved on the operations port
func registerDebugRoutes(r *mux.Router, core *catalog.Core) {
	r.HandleFunc("/debug/auth", func(w http.ResponseWriter, r *http.Request) {
		resolver := core.Resolver()
		if resolver == nil {
			middleware.WriteError(w, catalog.ErrNotInitialized)
			return
		}
		snapshot, err := resolver.Snapshot()
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		httputil.WriteSuccess(w, snapshot)
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/auth/{action}", func(w http.ResponseWriter, r *http.Request) {
		info, err := core.Describe(mux.Vars(r)["action"])
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		httputil.WriteSuccess(w, info)
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/plugins", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w, map[string]any{
			"plugins":      core.Registry().Info(),
			"translations": core.TranslationDirs(),
		})
	}).Methods(http.MethodGet)
}
