// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianInsights/pkg/logging"
	"github.com/AleutianAI/AleutianInsights/services/connectors"
	"github.com/AleutianAI/AleutianInsights/services/insights/agents"
	"github.com/AleutianAI/AleutianInsights/services/insights/routes"
	"github.com/AleutianAI/AleutianInsights/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("insights-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildLLMClient picks the backend from LLM_BACKEND_TYPE. A missing or
// broken backend is not fatal: the pipeline degrades to heuristic
// analysis and data-only answers.
func buildLLMClient() llm.LLMClient {
	var client llm.LLMClient
	var err error

	switch backend := os.Getenv("LLM_BACKEND_TYPE"); backend {
	case "openai":
		client, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		client, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "none":
		slog.Info("LLM backend disabled, running heuristic-only")
		return nil
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to ollama", "value", backend)
		client, err = llm.NewOllamaClient()
	}
	if err != nil {
		slog.Warn("Failed to initialize LLM client, running heuristic-only", "error", err)
		return nil
	}
	return client
}

func main() {
	port := os.Getenv("INSIGHTS_PORT")
	if port == "" {
		port = "12240"
	}

	appLogger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		LogDir:  os.Getenv("LOG_DIR"),
		Service: "insights",
		JSON:    true,
	})
	defer appLogger.Close()
	logger := appLogger.Slog()
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	llmClient := buildLLMClient()

	conns := map[string]connectors.Connector{
		"google_analytics": connectors.NewGoogleAnalyticsConnector(connectors.GoogleAnalyticsCredentials{
			KeyFile:    os.Getenv("GA_KEY_FILE"),
			PropertyID: os.Getenv("GA_PROPERTY_ID"),
		}, logger),
		"stripe": connectors.NewStripeConnector(connectors.StripeCredentials{
			APIKey: os.Getenv("STRIPE_API_KEY"),
		}, logger),
	}

	pipeline := agents.NewInsightPipeline(
		agents.NewQueryAnalyzer(llmClient, logger),
		agents.NewDataFetcher(conns, logger),
		agents.NewResponseGenerator(llmClient, logger),
		logger,
	)

	router := gin.Default()
	router.Use(otelgin.Middleware("insights-service"))

	routes.SetupRoutes(router, pipeline)
	log.Println("started up the container")

	log.Println("Starting the insights server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
