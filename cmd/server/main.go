package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/gigboard/backend/internal/access"
	"github.com/gigboard/backend/internal/config"
	"github.com/gigboard/backend/internal/database"
	"github.com/gigboard/backend/internal/ledger"
	mW "github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/notify"
	"github.com/gigboard/backend/internal/services"
	"github.com/gigboard/backend/internal/treasury"
)

// @title Gigboard Backend API
// @version 1.0
// @description API for the gig marketplace ledger
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")
	viper.BindEnv("treasury.custody_account", "TREASURY_CUSTODY_ACCOUNT")
	viper.BindEnv("events.queue", "EVENTS_QUEUE")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	ledgerCfg := config.LoadLedgerConfig()

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	roleService := access.NewRoleService(redisClient)
	seedCtx := context.Background()
	for role, seeds := range map[string][]string{
		ledger.RoleAdmin:    ledgerCfg.AdminSeeds,
		ledger.RolePauser:   ledgerCfg.PauserSeeds,
		ledger.RoleGigOwner: ledgerCfg.GigOwnerSeeds,
	} {
		if err := roleService.Seed(seedCtx, role, seeds); err != nil {
			log.Printf("Warning: failed to seed %s role: %v", role, err)
		}
	}

	treasuryService := treasury.New(db)
	notifier := notify.NewQueueNotifier(redisClient)

	gigLedger := ledger.New(roleService, treasuryService, notifier, ledger.Config{
		CommissionDivisor: ledgerCfg.CommissionDivisor,
	})

	gigService := services.NewGigService(gigLedger)
	adminService := services.NewAdminService(gigLedger, roleService)
	authService := services.NewAuthService(db, redisClient)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			// Gig registry
			r.Post("/gigs", gigService.CreateGig)
			r.Get("/gigs", gigService.ListGigs)
			r.Get("/gigs/mine", gigService.ListMyGigs)
			r.Get("/gigs/{gigId}", gigService.GetGig)

			// Application registry
			r.Post("/gigs/{gigId}/applications", gigService.SubmitApplication)
			r.Get("/gigs/{gigId}/applications", gigService.ListApplicationsForGig)
			r.Get("/applications/mine", gigService.ListMyApplications)

			// Assignment and settlement
			r.Post("/gigs/{gigId}/assign", gigService.SelectWorker)
			r.Post("/gigs/{gigId}/payout", gigService.Payout)
			r.Post("/withdrawals", adminService.Withdraw)
			r.Post("/deposits", adminService.Deposit)

			// Admin controls
			r.Post("/admin/pause", adminService.Pause)
			r.Post("/admin/unpause", adminService.Unpause)
			r.Post("/admin/roles/grant", adminService.GrantRole)
			r.Post("/admin/roles/revoke", adminService.RevokeRole)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
