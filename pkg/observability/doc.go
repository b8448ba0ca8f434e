// Package observability provides structured logging, Prometheus metrics, health checks
// and OpenTelemetry tracing for the catalog binary.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("action", "dataset_update").Info("access denied")
//
// FromContext decorates the context logger with the request ID, acting user and
// trace IDs set by the HTTP middleware.
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	resolver := auth.NewResolver(groups, providers, auth.WithRecorder(metrics))
//
// Metrics implements auth.Recorder, so every authorization check is counted by
// action and outcome (allowed, denied, sysadmin, ignored, error).
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	checker.Register("auth_table", true, func(ctx context.Context) error { return core.Ready() })
//
// # OpenTelemetry
//
//	tp, err := observability.InitTracing(ctx, cfg, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
package observability
