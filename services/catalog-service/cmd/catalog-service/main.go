package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nutribook/nutribook/libs/config"
	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/httpx"
	"github.com/nutribook/nutribook/libs/kafkax"
	otelx "github.com/nutribook/nutribook/libs/otel"
	"github.com/nutribook/nutribook/libs/outbox"
	"github.com/nutribook/nutribook/libs/runtime"
	"github.com/nutribook/nutribook/services/catalog-service/internal/handlers"
	"github.com/nutribook/nutribook/services/catalog-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "catalog-service")
	port, err := config.Port("PORT", "8082")
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
	repo := storage.NewRepository(pool, outboxRepo)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if err := startGrpcServer(ctx, logger, repo); err != nil {
		logger.Error("grpc server failed to start", "err", err)
		panic(err)
	}

	handler := handlers.New(repo)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	mux.HandleFunc("/api/v1/services", handler.ListServices)
	mux.HandleFunc("/api/v1/services/get", handler.GetService)
	mux.HandleFunc("/api/v1/services/upsert", handler.UpsertService)
	mux.HandleFunc("/api/v1/plans", handler.ListPlans)
	mux.HandleFunc("/api/v1/plans/create", handler.CreatePlan)
	mux.HandleFunc("/api/v1/plan-orders", handler.ListOrders)
	mux.HandleFunc("/api/v1/plan-orders/place", handler.PlaceOrder)
	mux.HandleFunc("/api/v1/plan-orders/confirm", handler.ConfirmOrder)
	mux.HandleFunc("/api/v1/plan-orders/cancel", handler.CancelOrder)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "catalog")
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
