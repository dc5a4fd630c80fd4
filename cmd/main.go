package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"maintenance-intake/internal/api"
	"maintenance-intake/internal/config"
	"maintenance-intake/internal/consumer"
	"maintenance-intake/internal/intake"
	"maintenance-intake/internal/messaging"
	"maintenance-intake/internal/metrics"
	"maintenance-intake/internal/notifier"
	"maintenance-intake/internal/storage"
	"maintenance-intake/internal/worker"
)

// @title Maintenance Request Intake API
// @version 1.0
// @description Tenant maintenance request intake and triage service
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded")

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("PostgreSQL connected")

	// Init RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitClient.Close()
	if err := rabbitClient.DeclareQueues(); err != nil {
		log.Fatalf("Failed to declare queues: %v", err)
	}
	log.Println("RabbitMQ connected")

	// Webhook relay: notifier + worker pool fed by the intake event consumer
	notify := notifier.New(cfg.Webhook.URL, time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second)
	if !notify.Configured() {
		log.Println("⚠️ Webhook URL not configured; relays will be no-ops")
	}

	pool := worker.NewPool(notify, cfg.Workers)
	pool.Start()

	relayConsumer, err := consumer.StartConsumer(rabbitClient.GetConnection(), pool.Enqueue)
	if err != nil {
		log.Fatalf("Failed to start relay consumer: %v", err)
	}

	// Start background loop for updating queue depth metrics
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			rabbitClient.UpdateQueueDepth()
		}
	}()

	// Init reconciliation engine and API
	engine := intake.NewEngine(db)
	apiHandler := api.NewAPI(engine, db, notify, rabbitClient, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Starting API server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Println("Shutdown initiated...")

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Stop the relay pipeline
	relayConsumer.Stop()
	pool.Stop()

	log.Println("Graceful shutdown complete")
}
