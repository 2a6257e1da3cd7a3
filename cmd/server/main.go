package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"survey-backend/internal/database"
	"survey-backend/internal/handlers"
	"survey-backend/internal/notify"
	"survey-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env (ignore error in production — env vars set directly)
	_ = godotenv.Load()

	mongoURI := getEnv("MONGODB_URI", "")
	dbName := getEnv("DB_NAME", "survey_platform")
	port := getEnv("PORT", "8080")
	publicDir := getEnv("PUBLIC_DIR", "public")

	if mongoURI == "" {
		log.Fatal("❌ MONGODB_URI is required")
	}

	// Connect to MongoDB
	if err := database.Connect(mongoURI, dbName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepo()
	surveyRepo := repository.NewSurveyRepo()
	voteRepo := repository.NewVoteRepo()

	// Ensure indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create user indexes: %v", err)
	}
	if err := surveyRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create survey indexes: %v", err)
	}
	if err := voteRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create vote indexes: %v", err)
	}

	// Notifications go to email when Resend is configured, otherwise the log
	var notifier notify.Notifier = notify.NewLogNotifier()
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		if to := os.Getenv("NOTIFY_EMAIL"); to != "" {
			notifier = notify.NewEmailNotifier(apiKey, os.Getenv("FROM_EMAIL"), to)
		}
	}

	// Initialize handlers
	surveyHandler := handlers.NewSurveyHandler(surveyRepo, voteRepo, userRepo, notifier)
	voteHandler := handlers.NewVoteHandler(surveyRepo, voteRepo, userRepo)
	userHandler := handlers.NewUserHandler(userRepo, surveyRepo, voteRepo)
	pageHandler := handlers.NewPageHandler(surveyRepo, publicDir)

	// Setup chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"survey-backend"}`))
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/surveys", surveyHandler.ListSurveys)
		r.Post("/surveys", surveyHandler.CreateSurvey)
		r.Get("/surveys/{id}", surveyHandler.GetSurvey)
		r.Post("/surveys/{id}/vote", voteHandler.CastVote)
		r.Get("/surveys/{id}/voted", voteHandler.HasVoted)
		r.Post("/surveys/{id}/end", surveyHandler.EndSurvey)
		r.Delete("/surveys/{id}", surveyHandler.DeleteSurvey)

		r.Get("/users/{username}/stats", userHandler.GetStats)
		r.Get("/users/{username}/surveys", userHandler.GetSurveys)
		r.Get("/users/{username}/votes", userHandler.GetVotes)
	})

	// Link-preview shell and SPA fallback
	r.Get("/survey/{id}", pageHandler.SurveyPage)
	r.NotFound(pageHandler.Static)

	// Start server
	log.Printf("🚀 Survey backend starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
