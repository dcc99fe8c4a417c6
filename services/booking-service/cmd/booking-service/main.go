package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nutribook/nutribook/libs/config"
	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/httpx"
	"github.com/nutribook/nutribook/libs/inbox"
	"github.com/nutribook/nutribook/libs/kafkax"
	otelx "github.com/nutribook/nutribook/libs/otel"
	"github.com/nutribook/nutribook/libs/outbox"
	"github.com/nutribook/nutribook/libs/runtime"
	"github.com/nutribook/nutribook/services/booking-service/internal/catalogrpc"
	"github.com/nutribook/nutribook/services/booking-service/internal/handlers"
	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
	"github.com/nutribook/nutribook/services/booking-service/internal/sweep"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	slotRepo := storage.NewSlotRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	sessionRepo := storage.NewSessionRepository(pool, outboxRepo)
	catalogRepo := storage.NewCatalogRepository(pool)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	// Keep the local service projection current so slot generation knows each
	// service's consultation duration without calling catalog-service.
	inboxRepo := inbox.NewRepository(pool)
	catalogConsumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
		Brokers: kafkaBrokers,
		GroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
		Topic:   config.String("KAFKA_CATALOG_TOPIC", "catalog.service.upserted.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ServiceID       string `json:"service_id"`
			Name            string `json:"name"`
			DurationMinutes int    `json:"duration_minutes"`
			Active          bool   `json:"active"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.ServiceID == "" || payload.DurationMinutes <= 0 {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}
		return catalogRepo.Upsert(ctx, storage.CatalogEntry{
			ServiceID:       payload.ServiceID,
			Name:            payload.Name,
			DurationMinutes: payload.DurationMinutes,
			Active:          payload.Active,
		})
	})
	go catalogConsumer.Run(ctx)

	sweeper := sweep.New(sessionRepo, logger, sweep.Config{
		Interval: config.DurationSeconds("SESSION_SWEEP_INTERVAL_SECONDS", time.Minute),
		MaxAge:   config.DurationSeconds("SESSION_MAX_AGE_SECONDS", 4*time.Hour),
	})
	go sweeper.Run(ctx)

	var catalogStore handlers.CatalogStore = catalogRepo
	if addr := config.String("CATALOG_GRPC_ADDR", ""); addr != "" {
		grpcStore, err := catalogrpc.NewStore(addr)
		if err != nil {
			logger.Error("catalog grpc dial failed, using local projection", "err", err, "addr", addr)
		} else if grpcStore != nil {
			defer func() { _ = grpcStore.Close() }()
			catalogStore = grpcStore
			logger.Info("catalog lookups via grpc", "addr", addr)
		}
	}

	slotHandler := handlers.NewSlotHandler(slotRepo, catalogStore, logger)
	apptHandler := handlers.NewAppointmentHandler(apptRepo, logger)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	mux.HandleFunc("/api/v1/slots/generate", slotHandler.Generate)
	mux.HandleFunc("/api/v1/slots/generate-all", slotHandler.GenerateAll)
	mux.HandleFunc("/api/v1/public/slots", slotHandler.PublicSlots)
	mux.HandleFunc("/api/v1/appointments", routeByMethod(apptHandler.Reserve, apptHandler.List))
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/call-sessions", routeByMethod(sessionHandler.Create, sessionHandler.Get))
	mux.HandleFunc("/api/v1/call-sessions/answer", sessionHandler.Answer)
	mux.HandleFunc("/api/v1/call-sessions/candidates", sessionHandler.AddCandidate)
	mux.HandleFunc("/api/v1/call-sessions/end", sessionHandler.End)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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

func routeByMethod(post, get http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			post(w, r)
		case http.MethodGet:
			get(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
