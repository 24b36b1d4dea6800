package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/thermoters/jobd/internal/api/handlers"
	"github.com/thermoters/jobd/internal/api/middleware"
	"github.com/thermoters/jobd/internal/auth/google"
	"github.com/thermoters/jobd/internal/auth/session"
	"github.com/thermoters/jobd/internal/config"
	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/logging"
	"github.com/thermoters/jobd/internal/predictor"
	"github.com/thermoters/jobd/internal/processor"
	"github.com/thermoters/jobd/internal/quota"
	"github.com/thermoters/jobd/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	tracker := quota.NewTracker(database, cfg.QuotaLimit, cfg.QuotaWindow)
	client := predictor.NewClient(cfg.PredictorBaseURL, cfg.PredictorTimeout)

	proc := processor.New(database, client, processor.Config{
		Workers:        cfg.Workers,
		QueueSize:      cfg.QueueSize,
		PredictTimeout: cfg.PredictorTimeout,
		MaxProcessing:  cfg.MaxProcessing,
		SweepInterval:  cfg.SweepInterval,
	})
	proc.Start(context.Background())

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.Middleware)

	// Public routes
	r.Get("/ping", handlers.PingHandler())

	// OAuth flow
	r.Get("/auth/google/login", google.HandleLogin)
	r.Get("/auth/google/callback", google.HandleCallback(database, sessions))

	// API routes (session required)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SessionAuth(sessions))
		r.Post("/jobs", handlers.SubmitJobHandler(database, tracker, proc))
		r.Get("/jobs", handlers.HistoryHandler(database))
		r.Get("/jobs/{jobID}", handlers.GetJobHandler(database))
		r.Get("/jobs/{jobID}/download", handlers.DownloadJobHandler(database))
		r.Get("/account", handlers.AccountHandler(database, tracker))
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("🚀 jobd %s starting on http://%s", version.Version, addr)
	log.Printf("🧬 Predictor upstream: %s", cfg.PredictorBaseURL)
	log.Printf("👷 Workers: %d, quota: %d per %s", cfg.Workers, cfg.QuotaLimit, cfg.QuotaWindow)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
