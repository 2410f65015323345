package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/fleetpro/fleet-maintenance/internal/advisor"
	"github.com/fleetpro/fleet-maintenance/internal/auth"
	"github.com/fleetpro/fleet-maintenance/internal/db"
	"github.com/fleetpro/fleet-maintenance/internal/fleet"
	"github.com/fleetpro/fleet-maintenance/internal/handlers"
	"github.com/fleetpro/fleet-maintenance/internal/ingest"
	"github.com/fleetpro/fleet-maintenance/internal/middleware"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "fleetpro"
	}
	store := &db.FleetStore{Collection: client.Database(dbName).Collection("fleet")}

	fl, err := fleet.New(context.Background(), store)
	if err != nil {
		log.WithError(err).Fatal("Failed to hydrate fleet")
	}
	log.WithField("vehicles", len(fl.Vehicles())).Info("Fleet hydrated")

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to configure authentication")
	}

	authHandler := handlers.NewAuthHandler(authService)
	vehicleHandler := handlers.NewVehicleHandler(fl)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("GET /api/vehicles/{id}", vehicleHandler.Get)
	mux.HandleFunc("PUT /api/vehicles/{id}", vehicleHandler.Update)
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicleHandler.Delete)
	mux.HandleFunc("PUT /api/vehicles/{id}/usage", vehicleHandler.UpdateUsage)
	mux.HandleFunc("POST /api/vehicles/{id}/maintenance", vehicleHandler.AddMaintenance)
	mux.HandleFunc("GET /api/vehicles/{id}/maintenance", vehicleHandler.GetMaintenance)
	mux.HandleFunc("GET /api/vehicles/{id}/status", vehicleHandler.GetStatus)
	mux.HandleFunc("GET /api/stats", vehicleHandler.GetStats)
	mux.HandleFunc("GET /health", healthHandler)

	// Advisory endpoints only when an API key is configured
	if advisorClient, err := advisor.NewClient(); err == nil {
		advisorHandler := handlers.NewAdvisorHandler(advisorClient, fl)
		mux.HandleFunc("POST /api/advice", advisorHandler.Advice)
		mux.HandleFunc("POST /api/analyze-image", advisorHandler.AnalyzeImage)
	} else {
		log.Info("GEMINI_API_KEY not set, advisory endpoints disabled")
	}

	// Optional MQTT usage ingest
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		ing, err := ingest.NewIngestor(broker, "fleet-maintenance", fl)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		if err := ing.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start usage ingest")
		}
		defer ing.Stop()
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(120, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
