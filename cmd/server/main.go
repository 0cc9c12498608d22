package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	jwttoken "idledger/internal/jwt_token"
	"idledger/internal/ledger/events"
	"idledger/internal/ledger/handler"
	ledgermetrics "idledger/internal/ledger/metrics"
	"idledger/internal/ledger/service"
	"idledger/internal/ledger/store"
	"idledger/internal/platform/config"
	"idledger/internal/platform/httpserver"
	"idledger/internal/platform/kafka"
	"idledger/internal/platform/logger"
	"idledger/internal/platform/metrics"
	"idledger/internal/platform/postgres"
	"idledger/internal/platform/rabbitmq"
	"idledger/internal/platform/redis"
	"idledger/internal/platform/tracing"
	"idledger/pkg/platform/middleware/metadata"
	"idledger/pkg/platform/middleware/request"
	"idledger/pkg/platform/middleware/requesttime"
)

const (
	serviceName     = "idledger"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// backend is a ledger store that also serves as the event outbox.
type backend interface {
	service.Ledger
	events.Outbox
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/ledger.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "idledger:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := ledgermetrics.NewWithRegisterer(reg)
	httpMetrics := metrics.New(reg)

	var (
		serviceOpts = []service.Option{service.WithLogger(log), service.WithMetrics(ledgerMetrics)}
		handlerOpts []handler.Option
		sinks       []events.Sink
	)

	ledgerStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if pinger, ok := ledgerStore.(interface{ Ping(context.Context) error }); ok {
		handlerOpts = append(handlerOpts, handler.WithHealthCheck("postgres", pinger.Ping))
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache := store.NewRedisRegistrationCache(redisClient.Client, store.WithCacheTTL(cfg.Redis.CacheTTL))
		serviceOpts = append(serviceOpts, service.WithRegistrationCache(cache))
		handlerOpts = append(handlerOpts, handler.WithHealthCheck("redis", redisClient.Health))
		log.Info("registration cache enabled")
	}

	kafkaClient, err := kafka.New(ctx, kafka.Config{
		Brokers:           cfg.Kafka.Brokers,
		Topic:             cfg.Kafka.Topic,
		Partitions:        1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		sinks = append(sinks, events.NewKafkaSink(kafkaClient.Client, kafkaClient.Topic()))
		handlerOpts = append(handlerOpts, handler.WithHealthCheck("kafka", kafkaClient.Health))
	}

	amqpConn, err := rabbitmq.Connect(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, log)
	if err != nil {
		return err
	}
	if amqpConn != nil {
		defer amqpConn.Close()
		sinks = append(sinks, events.NewRabbitSink(amqpConn.Channel, amqpConn.Exchange))
		handlerOpts = append(handlerOpts, handler.WithHealthCheck("rabbitmq", func(context.Context) error {
			return amqpConn.Health()
		}))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, events.NewLogSink(log))
	}

	ledgerService, err := service.New(ledgerStore, cfg.Admin, serviceOpts...)
	if err != nil {
		return err
	}

	relay, err := events.NewRelay(ledgerStore, sinks,
		events.WithInterval(cfg.Outbox.Interval),
		events.WithBatchSize(cfg.Outbox.BatchSize),
		events.WithLogger(log),
		events.WithMetrics(ledgerMetrics),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	ledgerHandler := handler.New(ledgerService, log, jwttoken.NewJWTServiceAdapter(jwtService), handlerOpts...)

	srv := httpserver.New(cfg.Addr, newRouter(log, httpMetrics, reg, ledgerHandler))

	log.Info("starting idledger",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"administrator", cfg.Admin.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, shutdownTimeout, log)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	return g.Wait()
}

// openStore selects Postgres when DATABASE_URL is set and the in-memory
// store otherwise.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (backend, func(), error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory ledger store")
		return store.NewInMemoryStore(store.WithTxTimeout(cfg.LedgerTxTimeout)), func() {}, nil
	}
	if err := postgres.Migrate(ctx, cfg.Database.URL, store.Schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("using postgres ledger store")
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}
	return store.NewPostgres(db).WithTimeout(cfg.LedgerTxTimeout), closeDB, nil
}

func newRouter(log *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, h *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(tracing.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Timeout(requestTimeout))
	r.Use(request.Latency(m))

	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	h.Register(r)
	return r
}
