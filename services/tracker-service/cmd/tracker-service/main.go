package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/monume/tracker/libs/config"
	"github.com/monume/tracker/libs/db"
	"github.com/monume/tracker/libs/httpx"
	"github.com/monume/tracker/libs/kafkax"
	otelx "github.com/monume/tracker/libs/otel"
	"github.com/monume/tracker/libs/runtime"
	"github.com/monume/tracker/services/tracker-service/internal/appointments"
	"github.com/monume/tracker/services/tracker-service/internal/calendar"
	"github.com/monume/tracker/services/tracker-service/internal/consumer"
	"github.com/monume/tracker/services/tracker-service/internal/directory"
	"github.com/monume/tracker/services/tracker-service/internal/handlers"
	"github.com/monume/tracker/services/tracker-service/internal/inbox"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
	"github.com/monume/tracker/services/tracker-service/internal/outbox"
	"github.com/monume/tracker/services/tracker-service/internal/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "tracker-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	store, cleanup, err := openStore(ctx, logger)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		panic(err)
	}
	defer cleanup()

	dirRepo, err := directory.NewRepository(ctx, store)
	if err != nil {
		logger.Error("directory load failed", "err", err)
		panic(err)
	}
	seedRemoteStaff(ctx, dirRepo, logger)

	apptStore, err := appointments.NewStore(ctx, store, dirRepo)
	if err != nil {
		logger.Error("appointment load failed", "err", err)
		panic(err)
	}

	outboxRepo, err := outbox.NewRepository(ctx, store)
	if err != nil {
		logger.Error("outbox load failed", "err", err)
		panic(err)
	}
	apptStore.Subscribe(outbox.Recorder(outboxRepo, logger))

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	if brokers != "" {
		inboxRepo, err := inbox.NewRepository(ctx, store)
		if err != nil {
			logger.Error("inbox load failed", "err", err)
			panic(err)
		}
		sync := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "tracker-service"),
			Topics:  directoryTopics(),
		}, consumer.DirectorySync(dirRepo, logger))
		go sync.Run(ctx)
	}

	sessions := session.NewManager(apptStore, editorLog{logger: logger})
	projection := calendar.New(apptStore)

	apptHandler := handlers.NewAppointmentHandler(apptStore, sessions, logger)
	calHandler := handlers.NewCalendarHandler(projection, apptStore, logger)
	dirHandler := handlers.NewDirectoryHandler(dirRepo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "storage", Check: kvstore.ReadyCheck(store)},
	}
	if brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/appointments", apptHandler.Collection)
	mux.HandleFunc("/api/v1/appointments/", apptHandler.Item)
	mux.HandleFunc("/api/v1/calendar/events", calHandler.Events)
	mux.HandleFunc("/api/v1/slots", calHandler.Slots)
	mux.HandleFunc("/api/v1/stats", calHandler.Stats)
	mux.HandleFunc("/api/v1/customers", dirHandler.Customers)
	mux.HandleFunc("/api/v1/customers/", dirHandler.CustomerItem)
	mux.HandleFunc("/api/v1/staff", dirHandler.Staff)
	mux.HandleFunc("/api/v1/staff/", dirHandler.StaffItem)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders: parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		rateLimitMiddleware(logger),
	)
	handler = otelhttp.NewHandler(handler, "tracker")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// openStore selects the collection store backend from STORAGE_BACKEND.
func openStore(ctx context.Context, logger *slog.Logger) (kvstore.Store, func(), error) {
	backend := strings.ToLower(config.String("STORAGE_BACKEND", "postgres"))
	switch backend {
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return nil, nil, err
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("storage backend ready", "backend", "postgres")
		return store, pool.Close, nil
	case "redis":
		addr, err := config.RequiredString("REDIS_ADDR")
		if err != nil {
			return nil, nil, err
		}
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		store := kvstore.NewRedis(rdb, config.String("REDIS_PREFIX", "tracker"))
		logger.Info("storage backend ready", "backend", "redis", "addr", addr)
		return store, func() { _ = rdb.Close() }, nil
	case "memory":
		logger.Warn("storage backend is in-memory; data is not durable")
		return kvstore.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}

// seedRemoteStaff pulls the roster from the admin service in builds
// that carry the gRPC client; elsewhere the provider is nil.
func seedRemoteStaff(ctx context.Context, repo *directory.Repository, logger *slog.Logger) {
	addr := config.String("DIRECTORY_GRPC_ADDR", "")
	if addr == "" {
		return
	}
	remote, err := directory.NewRemoteStaff(addr)
	if err != nil {
		logger.Error("remote staff dial failed", "err", err, "addr", addr)
		return
	}
	if remote == nil {
		logger.Info("remote staff sync unavailable in this build", "addr", addr)
		return
	}
	roster, err := remote.ListStaff(ctx)
	if err != nil {
		logger.Error("remote staff list failed", "err", err)
		return
	}
	for _, entry := range roster {
		if err := repo.UpsertStaff(ctx, model.Staff{ID: entry.ID, Name: entry.Name}); err != nil {
			logger.Error("remote staff upsert failed", "err", err, "staff_id", entry.ID)
		}
	}
	logger.Info("remote staff synced", "count", len(roster))
}

func directoryTopics() []string {
	raw := config.String("KAFKA_DIRECTORY_TOPICS", "")
	if raw == "" {
		return consumer.DirectoryTopics()
	}
	return parseList(raw)
}

func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limitPerMinute := config.Int("RATE_LIMIT_RPM", 300)
	if addr := config.String("RATE_LIMIT_REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
		return rl.Middleware(logger, true)
	}
	rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
	logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	return rl.Middleware()
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// editorLog satisfies session.UIHost for the headless service: the
// browser editor surface becomes log lines.
type editorLog struct {
	logger *slog.Logger
}

func (e editorLog) ShowDraftEditor(id string) {
	if id == "" {
		e.logger.Debug("draft editor opened", "mode", "create")
		return
	}
	e.logger.Debug("draft editor opened", "mode", "edit", "appointment_id", id)
}

func (e editorLog) CloseDraftEditor() {
	e.logger.Debug("draft editor closed")
}
