package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/config"
	"inventory-service/internal/database"
	"inventory-service/internal/logger"
	"inventory-service/internal/producer"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/internal/sweeper"
	"inventory-service/internal/token"
	transport "inventory-service/internal/transport/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var auditProducer service.AuditProducer
	if len(cfg.Kafka.Brokers) > 0 {
		p := producer.NewAuditProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()
		auditProducer = p
		log.Info("audit kafka mirror enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	audit := service.NewAuditLog(repos, auditProducer, log, cfg.Ledger.DurableAudit)
	go drainAuditErrors(audit, log)

	catalog := service.NewCatalogService(repos)
	engine := service.NewReservationEngine(repos, audit, service.EngineConfig{
		MaxCASRetries:         cfg.Ledger.MaxCASRetries,
		DefaultReservationTTL: cfg.Ledger.DefaultReservationTTL,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(engine, cfg.Ledger.SweepInterval, log)
	sw.Start(ctx)
	defer sw.Stop()

	verifier := token.NewHSVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	handler := transport.NewHandler(catalog, engine, log)
	router := transport.Router(handler, verifier, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("inventory HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to run http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down inventory HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	log.Info("Inventory HTTP server stopped gracefully")
}

// drainAuditErrors выносит ошибки best-effort журнала в основной лог процесса.
func drainAuditErrors(audit *service.AuditLog, log *zap.Logger) {
	for err := range audit.Errors() {
		log.Warn("audit operational error", zap.Error(err))
	}
}
