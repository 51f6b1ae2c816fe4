// Package main runs the cross-chain bridge quote aggregator: an HTTP API that
// collects quotes from every supported bridge, ranks them and searches
// two-hop paths through hub chains.
package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/config"
	"github.com/JustRahman/cross-chain-bridghe/internal/otel"
)

// main is the entry point for the application
func main() {
	// Load configuration
	cfg := config.Load()

	// Configure logging
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	shutdownTracer := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDependencies(context.Background(), cfg, registry)
	if err != nil {
		logrus.Errorf("Failed to initialize: %v", err)
		os.Exit(1)
	}
	defer deps.Close()

	// Create and start server
	server := NewServer(cfg, deps, registry)
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging(logLevel, logFormat string) {
	// Set log formatter based on environment
	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Set log level based on environment
	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}
