// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command auditcore starts the Akusiap audit core HTTP server.
//
// Configuration is read from an optional yaml file plus environment
// variable overrides.
//
// # Environment Variables
//
//   - AUDITCORE_PORT: HTTP server port (default: 12310)
//   - AUDITCORE_DB_PATH: BadgerDB directory (default: data/auditcore)
//   - AUDITCORE_CONFLICT_THRESHOLD: max auditor desk-score split (default: 0.5)
//   - AUDITCORE_DIVERGENCE_THRESHOLD: trend divergence cutoff (default: 0.5)
//   - AUDITCORE_UNIT_DIRECTORY: unit directory yaml path (optional)
//   - OPENAI_API_KEY, OPENAI_MODEL: analysis service (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//
// # Usage
//
//	# Build
//	go build -o auditcore ./cmd/auditcore
//
//	# Run
//	./auditcore serve --config auditcore.yaml
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sahaif4/akusiap-v1-sub001/pkg/logging"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/config"
)

var (
	configPath string
	logDir     string

	rootCmd = &cobra.Command{
		Use:   "auditcore",
		Short: "The Akusiap internal-audit evaluation and finding-resolution service",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the audit core HTTP server",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(audit.ServiceVersion)
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "auditcore.yaml", "Path to the yaml configuration file")
	serveCmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for JSON log files (stderr only when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  logDir,
		Service: "auditcore",
		JSON:    true,
	})
	defer logger.Close()
	slogger := logger.Slog()
	slog.SetDefault(slogger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slogger.Info("Starting auditcore",
		"port", cfg.Port,
		"db_path", cfg.Storage.Path,
		"conflict_threshold", cfg.Thresholds.Conflict,
		"divergence_threshold", cfg.Thresholds.Divergence,
	)

	server, err := audit.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		slogger.Info("Shutdown signal received")
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slogger.Info("Auditcore stopped")
	return nil
}
