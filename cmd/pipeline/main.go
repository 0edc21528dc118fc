// Command pipeline runs the streaming annotation worker.
//
// It consumes document events from the document-annotate Kafka topic,
// matches each document against every loaded dictionary, and publishes
// one annotation event per matching dictionary to the annotations topic.
//
// Usage:
//
//	go run ./cmd/pipeline [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/internal/pipeline"
	"github.com/annotext/annotation-platform/pkg/config"
	"github.com/annotext/annotation-platform/pkg/kafka"
	"github.com/annotext/annotation-platform/pkg/logger"
	"github.com/annotext/annotation-platform/pkg/metrics"
	"github.com/annotext/annotation-platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting annotation pipeline",
		"consume_topic", cfg.Kafka.Topics.DocumentAnnotate,
		"publish_topic", cfg.Kafka.Topics.Annotations,
	)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := dictionary.NewRegistry()
	source, cleanup, err := dictionarySource(cfg)
	if err != nil {
		slog.Error("failed to configure dictionary source", "error", err)
		os.Exit(1)
	}
	defer cleanup()
	loaded, err := source.Load(ctx, registry)
	if err != nil {
		slog.Error("failed to load dictionaries", "source", source.Name(), "error", err)
		os.Exit(1)
	}
	for name, count := range registry.TermCounts() {
		m.TermsLoadedTotal.WithLabelValues(name).Add(float64(count))
	}
	slog.Info("dictionaries loaded", "dictionaries", registry.Size(), "terms", loaded)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Annotations)
	defer producer.Close()

	processor := pipeline.NewProcessor(registry, producer, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentAnnotate, processor.Handle)

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}

	if metricsShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("annotation pipeline stopped")
}

func dictionarySource(cfg *config.Config) (dictionary.Source, func(), error) {
	switch cfg.Dictionary.Source {
	case "postgres":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return dictionary.PostgresSource{DB: client, Table: cfg.Dictionary.Table}, func() { client.Close() }, nil
	case "dir", "":
		return dictionary.DirSource{Dir: cfg.Dictionary.Dir}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown dictionary source %q", cfg.Dictionary.Source)
	}
}
