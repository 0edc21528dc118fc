package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/annotext/annotation-platform/internal/annotator"
	anncache "github.com/annotext/annotation-platform/internal/annotator/cache"
	"github.com/annotext/annotation-platform/internal/annotator/handler"
	annrpc "github.com/annotext/annotation-platform/internal/annotator/rpc"
	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/pkg/config"
	"github.com/annotext/annotation-platform/pkg/grpc"
	"github.com/annotext/annotation-platform/pkg/health"
	"github.com/annotext/annotation-platform/pkg/kafka"
	"github.com/annotext/annotation-platform/pkg/logger"
	"github.com/annotext/annotation-platform/pkg/metrics"
	"github.com/annotext/annotation-platform/pkg/middleware"
	"github.com/annotext/annotation-platform/pkg/postgres"
	pkgredis "github.com/annotext/annotation-platform/pkg/redis"
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
	slog.Info("starting annotator service", "port", cfg.Server.Port, "dictionary_source", cfg.Dictionary.Source)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := dictionary.NewRegistry()
	source, pgClient, err := dictionarySource(cfg)
	if err != nil {
		slog.Error("failed to configure dictionary source", "error", err)
		os.Exit(1)
	}
	if pgClient != nil {
		defer pgClient.Close()
	}
	loaded, err := source.Load(ctx, registry)
	if err != nil {
		slog.Error("failed to load dictionaries", "source", source.Name(), "error", err)
		os.Exit(1)
	}
	for name, count := range registry.TermCounts() {
		m.TermsLoadedTotal.WithLabelValues(name).Add(float64(count))
	}
	slog.Info("dictionaries loaded",
		"source", source.Name(),
		"dictionaries", registry.Size(),
		"terms", loaded,
	)

	var annotationCache *anncache.AnnotationCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, annotation caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		annotationCache = anncache.New(redisClient, cfg.Redis, m)
		slog.Info("annotation cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Annotations)
	collector := annotator.NewCollector(producer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("annotation event collector started", "topic", cfg.Kafka.Topics.Annotations)

	checker := health.NewChecker()
	checker.Register("dictionaries", func(ctx context.Context) health.ComponentHealth {
		if registry.Size() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d dictionaries loaded", registry.Size())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no dictionaries"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	rpcServer := grpc.NewServer()
	annrpc.NewService(registry, m).RegisterOn(rpcServer)
	go func() {
		if err := rpcServer.Serve(fmt.Sprintf(":%d", cfg.Server.RPCPort)); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	defer rpcServer.Stop()

	h := handler.New(registry, annotationCache, collector, m, cfg.Annotator)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/annotate", h.AnnotateText)
	mux.HandleFunc("POST /api/v1/annotate/tokens", h.AnnotateTokens)
	mux.HandleFunc("POST /api/v1/annotate/labeled", h.AnnotateLabeled)
	mux.HandleFunc("GET /api/v1/dictionaries", h.Dictionaries)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("annotator service listening", "addr", server.Addr, "rpc_port", cfg.Server.RPCPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("annotator service stopped")
}

// dictionarySource builds the startup term source from config. The postgres
// client is returned so the caller can close it and register a health check.
func dictionarySource(cfg *config.Config) (dictionary.Source, *postgres.Client, error) {
	switch cfg.Dictionary.Source {
	case "postgres":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return dictionary.PostgresSource{DB: client, Table: cfg.Dictionary.Table}, client, nil
	case "dir", "":
		return dictionary.DirSource{Dir: cfg.Dictionary.Dir}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown dictionary source %q", cfg.Dictionary.Source)
	}
}
