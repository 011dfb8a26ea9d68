// Command pipeline-cli is the cobra control surface for the pipeline:
// project, pipeline, worker, monitor and deploy subcommands calling
// directly into the orchestrator's Go API, with no HTTP hop.
//
// Usage:
//
//	pipeline [--json] <command> <subcommand> [flags]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shaiso/devpipeline/internal/assignment"
	"github.com/shaiso/devpipeline/internal/broker"
	"github.com/shaiso/devpipeline/internal/cli"
	"github.com/shaiso/devpipeline/internal/config"
	"github.com/shaiso/devpipeline/internal/genexec"
	"github.com/shaiso/devpipeline/internal/gitpush"
	"github.com/shaiso/devpipeline/internal/issueclassifier"
	"github.com/shaiso/devpipeline/internal/orchestrator"
	"github.com/shaiso/devpipeline/internal/registry"
	"github.com/shaiso/devpipeline/internal/telemetry"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	logger := telemetry.SetupLogger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	classifier, err := issueclassifier.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
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

	ctx := context.Background()
	if err := reg.Restore(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	var jsonOutput bool
	root := cli.NewRootCmd(version, func() cli.Orchestrator { return orch }, func() *cli.Output { return cli.NewOutput(jsonOutput) })
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
