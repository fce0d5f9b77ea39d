package api

import (
	"github.com/creostudios/backend/internal/config"
	"github.com/creostudios/backend/internal/db"
	"github.com/creostudios/backend/internal/lifecycle"
	"github.com/creostudios/backend/internal/mailer"
	"github.com/creostudios/backend/internal/repository/sqlite"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db)

	// Notification sink and lifecycle authority
	m := mailer.New(cfg.Mail, logger)
	authority := lifecycle.New(repo, repo, m, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, repo, m, cfg.JWTSecret, cfg.AccessDuration, cfg.RefreshDuration, cfg.OTPExpiry)
	applicationsHandler := NewApplicationsHandler(authority)
	uploadsHandler := NewUploadsHandler(repo, repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/v1/auth/verify-otp", authHandler.VerifyOTP).Methods("POST")
	r.HandleFunc("/v1/auth/resend-otp", authHandler.ResendOTP).Methods("POST")
	r.HandleFunc("/v1/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/v1/auth/refresh", authHandler.Refresh).Methods("POST")

	// Artifact download is public: the opaque id is the retrieval handle
	r.HandleFunc("/v1/uploads/{id:[0-9]+}", uploadsHandler.Download).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	apiV1.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	// Application lifecycle endpoints
	apiV1.HandleFunc("/applications", applicationsHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/applications", applicationsHandler.ListOwn).Methods("GET")
	apiV1.HandleFunc("/applications/all", applicationsHandler.ListAll).Methods("GET")
	apiV1.HandleFunc("/applications/{id:[0-9]+}/status", applicationsHandler.SetStatus).Methods("PUT")
	apiV1.HandleFunc("/applications/{id:[0-9]+}/delivery", applicationsHandler.Deliver).Methods("PUT")

	// Artifact endpoints
	apiV1.HandleFunc("/uploads", uploadsHandler.Upload).Methods("POST")
	apiV1.HandleFunc("/uploads", uploadsHandler.List).Methods("GET")

	return r
}
