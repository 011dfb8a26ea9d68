// Command pipeline-api exposes the full HTTP control surface
// (internal/api) for dashboard and automation callers: project
// lifecycle, pipeline runs, worker/monitor control and deployment, on
// top of the same on-disk project registry the daemon and CLI share.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/devpipeline/internal/api"
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
	logger.Info("starting pipeline-api")

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

	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		logger.Info("control surface listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down pipeline-api")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GenCLITimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}
