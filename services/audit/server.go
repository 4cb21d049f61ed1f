// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/analysis"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/config"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/directory"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/storage"
)

// Server wires the audit service, its store, and its HTTP router.
type Server struct {
	cfg           config.Config
	store         *storage.BadgerStore
	svc           *Service
	router        *gin.Engine
	httpServer    *http.Server
	tracerCleanup func(context.Context)
}

// NewServer creates a fully wired server from the configuration.
//
// Description:
//
//	Opens the store, resolves the optional collaborators (analysis
//	service, unit directory, trace exporter), and builds the router.
//	Missing collaborators degrade gracefully: no API key means findings
//	are saved without suggestions, no OTLP endpoint means no trace
//	export.
//
// Outputs:
//
//	*Server - Ready to Run
//	error - Non-nil if the store cannot be opened or config is unusable
func NewServer(cfg config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	var err error
	if cfg.Storage.InMemory {
		s.store, err = storage.OpenInMemory()
	} else {
		s.store, err = storage.Open(storage.DefaultConfig(cfg.Storage.Path))
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var analyzer analysis.Analyzer
	analyzer, err = analysis.NewOpenAIAnalyzer()
	if err != nil {
		slog.Warn("Analysis service not configured, findings will be saved without suggestions",
			"error", err)
		analyzer = analysis.Noop{}
	}

	var units directory.Resolver
	if cfg.UnitDirectory != "" {
		resolver, err := directory.LoadFile(cfg.UnitDirectory)
		if err != nil {
			s.store.Close()
			return nil, fmt.Errorf("load unit directory: %w", err)
		}
		units = resolver
	}

	if cfg.OTelEndpoint != "" {
		cleanup, err := initTracer(cfg.OTelEndpoint)
		if err != nil {
			s.store.Close()
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	metrics := DefaultMetrics
	if metrics == nil {
		metrics = InitMetrics()
	}

	s.svc = NewService(s.store, analyzer, units, metrics, ServiceConfig{
		ConflictThreshold:   cfg.Thresholds.Conflict,
		DivergenceThreshold: cfg.Thresholds.Divergence,
	})
	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the listener fails. Cleanup is automatic on return.
func (s *Server) Run(ctx context.Context) error {
	defer s.cleanup()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting audit server", "port", s.cfg.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// Router returns the underlying Gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("audit-service"))
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(s.svc))
}

func (s *Server) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("Store close error", "error", err)
	}
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Sets up an OTLP trace exporter sending spans to the configured
// collector over an insecure gRPC connection, appropriate for internal
// networks.
func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("audit-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}
