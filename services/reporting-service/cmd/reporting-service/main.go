package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nutribook/nutribook/libs/config"
	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/httpx"
	"github.com/nutribook/nutribook/libs/inbox"
	"github.com/nutribook/nutribook/libs/kafkax"
	otelx "github.com/nutribook/nutribook/libs/otel"
	"github.com/nutribook/nutribook/libs/runtime"
	"github.com/nutribook/nutribook/services/reporting-service/internal/ingest"
	"github.com/nutribook/nutribook/services/reporting-service/internal/reports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "reporting-service")
	port, err := config.Port("PORT", "8086")
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

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "reporting-service")
	inboxRepo := inbox.NewRepository(pool)
	ingestor := ingest.New(pool, logger)

	topics := []struct {
		topic   string
		handler kafkax.Handler
	}{
		{"booking.appointment.booked.v1", ingestor.AppointmentBooked},
		{"booking.appointment.cancelled.v1", ingestor.AppointmentCancelled},
		{"call.session.ended.v1", ingestor.SessionEnded},
		{"catalog.plan.order.placed.v1", ingestor.PlanOrderEvent},
		{"catalog.plan.order.confirmed.v1", ingestor.PlanOrderEvent},
		{"catalog.plan.order.cancelled.v1", ingestor.PlanOrderEvent},
		{"auth.user.created.v1", ingestor.UserCreated},
		{"auth.audit.v1", ingestor.AuthAudit},
	}
	for _, t := range topics {
		consumer := kafkax.NewConsumer(logger, inboxRepo, kafkax.ConsumerConfig{
			Brokers: kafkaBrokers,
			GroupID: groupID,
			Topic:   t.topic,
		}, t.handler)
		go consumer.Run(ctx)
	}

	reportRepo := reports.NewRepository(pool)
	reportHandler := reports.NewHandler(reportRepo, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	mux.HandleFunc("/api/v1/reports/daily", reportHandler.DailyBookings)
	mux.HandleFunc("/api/v1/reports/calls", reportHandler.DailyCalls)
	mux.HandleFunc("/api/v1/reports/plan-orders", reportHandler.DailyPlanOrders)
	mux.HandleFunc("/api/v1/reports/signups", reportHandler.DailySignups)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "reporting")
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
