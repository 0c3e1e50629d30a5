package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signage-control-plane/internal/audit"
	"signage-control-plane/internal/audit/producer"
	"signage-control-plane/internal/broadcast"
	"signage-control-plane/internal/config"
	"signage-control-plane/internal/db"
	"signage-control-plane/internal/dashboard/service"
	"signage-control-plane/internal/dashboard/upstream"
	"signage-control-plane/internal/security"
	"signage-control-plane/internal/server"
	otelsetup "signage-control-plane/internal/telemetry/otel"

	actorrepo "signage-control-plane/internal/actor/repository"
	sessionrepo "signage-control-plane/internal/session/repository"
	sessionservice "signage-control-plane/internal/session/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required; the session store backs every login")
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "signage-control-plane", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	var auditor audit.Emitter
	kafkaProducer, err := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if err != nil {
		log.Fatalf("audit producer: %v", err)
	}
	if kafkaProducer != nil {
		auditor = kafkaProducer
		defer kafkaProducer.Close()
		log.Printf("audit pipeline enabled: topic %s", cfg.AuditKafkaTopic)
	}

	fabric := broadcast.NewFabric(cfg.SendTimeout())
	hasher := security.NewHasher(cfg.BcryptCost)
	actors := actorrepo.NewPostgresRepository(database)
	authority := sessionservice.NewAuthority(
		actors,
		sessionrepo.NewPostgresRepository(database),
		hasher,
		fabric,
	)

	fetcher := upstream.New(cfg.UpstreamBaseURL, cfg.SubFetchTimeout())
	cache := service.NewCache(fetcher, cfg.FreshTTL(), 3*cfg.SubFetchTimeout(), auditor)

	router := server.NewRouter(server.Deps{
		Authority: authority,
		Actors:    actors,
		Cache:     cache,
		Fabric:    fabric,
		DB:        database,
		Auditor:   auditor,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if auditor != nil {
		// Give in-flight async audit emits time to land before the producer closes.
		time.Sleep(audit.ShutdownDrainDuration)
	}
	log.Println("http server stopped")
}
