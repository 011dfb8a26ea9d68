// Command pipeline-daemon runs the autonomous pipeline loop: it
// restores the project registry, starts the CI monitor for whichever
// project was most recently active, and serves /healthz and /metrics
// for the rest of its life.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/devpipeline/internal/assignment"
	"github.com/shaiso/devpipeline/internal/broker"
	"github.com/shaiso/devpipeline/internal/config"
	"github.com/shaiso/devpipeline/internal/genexec"
	"github.com/shaiso/devpipeline/internal/gitpush"
	"github.com/shaiso/devpipeline/internal/issueclassifier"
	"github.com/shaiso/devpipeline/internal/orchestrator"
	"github.com/shaiso/devpipeline/internal/registry"
	"github.com/shaiso/devpipeline/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting pipeline-daemon")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	classifier, err := issueclassifier.New()
	if err != nil {
		logger.Error("failed to build issue classifier", "error", err)
		os.Exit(1)
	}

	brokerClient := broker.New(broker.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)

	orch := orchestrator.New(orchestrator.Config{
		Registry:        nil, // set below, once the controller itself exists
		Broker:          brokerClient,
		Store:           assignment.New(brokerClient, logger),
		Classifier:      classifier,
		Gen:             genexec.New(cfg.GenCLIBin, logger),
		Git:             gitpush.New("git", "rsync", logger),
		Upstream:        orchestrator.UpstreamConfig{Token: cfg.GitHubToken},
		ContainerDomain: cfg.DeployDomain,
		TunnelName:      cfg.TunnelName,
		Logger:          logger,
	})

	reg := registry.New(registry.Config{
		WorkspaceRoot: cfg.WorkspaceDir,
		Monitors:      orch,
		Logger:        logger,
	})
	orch.SetRegistry(reg)

	if err := reg.Restore(ctx); err != nil {
		logger.Error("failed to restore project registry", "error", err)
		os.Exit(1)
	}
	logger.Info("project registry restored", "projects", len(reg.List()))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := cfg.HTTPAddr
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("healthz/metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down pipeline-daemon")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GenCLITimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}
