package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/audit"
	"github.com/BaSui01/waybridge/backend"
	"github.com/BaSui01/waybridge/bridge"
	"github.com/BaSui01/waybridge/config"
	"github.com/BaSui01/waybridge/internal/metrics"
	"github.com/BaSui01/waybridge/internal/server"
	"github.com/BaSui01/waybridge/internal/telemetry"
	"github.com/BaSui01/waybridge/transport"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting Waybridge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	cfg.ResolveAPIKey(logger)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	collector := metrics.NewCollector("waybridge", logger)

	auditLogger, err := audit.New(cfg.Audit, logger)
	if err != nil {
		logger.Warn("audit disabled", zap.Error(err))
		auditLogger = nil
	}
	if auditLogger != nil {
		auditLogger.OnDrop(collector.RecordAuditDrop)
	}

	client := backend.NewClient(cfg.Backend, logger)

	registry, err := bridge.NewRegistry(bridge.DefaultEntries(), logger)
	if err != nil {
		logger.Fatal("failed to build tool registry", zap.Error(err))
	}
	dispatcher := bridge.NewDispatcher(registry, client, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional metrics/health listener.
	var metricsServer *server.Manager
	if cfg.Server.MetricsAddr != "" {
		metricsServer = server.NewManager(
			metricsMux(client, collector),
			serverConfig(cfg.Server),
			logger,
		)
		if err := metricsServer.Start(); err != nil {
			logger.Fatal("failed to start metrics server", zap.Error(err))
		}
	}

	// Optional websocket listener sharing the stdio pipeline.
	var wsServer *transport.WSServer
	if cfg.Transport.WSAddr != "" {
		runner := func(ctx context.Context, in io.Reader, out io.Writer) error {
			session := bridge.NewSession(in, out, dispatcher, auditSink(auditLogger), collector, cfg.Bridge.MaxInFlight, logger)
			return session.Run(ctx)
		}
		wsServer = transport.NewWSServer(cfg.Transport.WSAddr, runner, logger)
		if err := wsServer.Start(); err != nil {
			logger.Fatal("failed to start websocket listener", zap.Error(err))
		}
	}

	session := bridge.NewSession(os.Stdin, os.Stdout, dispatcher, auditSink(auditLogger), collector, cfg.Bridge.MaxInFlight, logger)
	if err := session.Run(ctx); err != nil {
		logger.Error("session ended with error", zap.Error(err))
	}

	// Input ended or a signal arrived; drain everything.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if wsServer != nil {
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("websocket shutdown failed", zap.Error(err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	if auditLogger != nil {
		if err := auditLogger.Close(); err != nil {
			logger.Warn("audit close failed", zap.Error(err))
		}
	}
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}

	logger.Info("Waybridge stopped")
}

// auditSink adapts a possibly-nil audit logger to the writer's sink
// interface. A typed nil behind a non-nil interface would defeat the
// writer's nil check.
func auditSink(l *audit.Logger) bridge.AuditSink {
	if l == nil {
		return nil
	}
	return l
}

func serverConfig(cfg config.ServerConfig) server.Config {
	sc := server.DefaultConfig()
	sc.Addr = cfg.MetricsAddr
	if cfg.ReadTimeout > 0 {
		sc.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		sc.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.IdleTimeout > 0 {
		sc.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		sc.ShutdownTimeout = cfg.ShutdownTimeout
	}
	return sc
}

// metricsMux serves Prometheus metrics and a backend health probe.
func metricsMux(client *backend.Client, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status, err := client.HealthCheck(ctx)
		body := map[string]any{
			"status":  "ok",
			"version": Version,
		}
		code := http.StatusOK
		if err != nil || !status.Healthy {
			body["status"] = "degraded"
			body["backend"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			body["backend_latency_ms"] = status.Latency.Milliseconds()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})
	return mux
}
