package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradefolio/backend/src/brokers"
	"github.com/username/tradefolio/backend/src/config"
	"github.com/username/tradefolio/backend/src/database"
	"github.com/username/tradefolio/backend/src/handlers"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/security"
	"github.com/username/tradefolio/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Tradefolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	reportCache := cache.New(config.Cfg.CacheExpiry, config.Cfg.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	analyticsService := services.NewAnalyticsService(reportCache)
	importService := services.NewImportService(analyticsService)

	var fillProvider brokers.FillProvider
	if config.Cfg.AlpacaAPIKey != "" && config.Cfg.AlpacaAPISecret != "" {
		alpaca := brokers.NewAlpacaClient(
			config.Cfg.AlpacaAPIKey, config.Cfg.AlpacaAPISecret,
			config.Cfg.AlpacaBaseURL, config.Cfg.AlpacaRateLimit)
		fillProvider = brokers.NewCircuitBreakerProvider(alpaca)
		logger.L.Info("Broker API sync enabled", "provider", fillProvider.Name())
	} else {
		logger.L.Info("No broker API credentials configured, sync endpoint disabled")
	}

	userHandler := handlers.NewUserHandler(authService)
	uploadHandler := handlers.NewUploadHandler(importService, fillProvider)
	tradeHandler := handlers.NewTradeHandler(analyticsService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)
	apiRouter.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	apiRouter.HandleFunc("POST /api/auth/refresh", userHandler.RefreshTokenHandler)
	apiRouter.HandleFunc("POST /api/auth/logout", userHandler.AuthMiddleware(userHandler.LogoutUserHandler))

	protected := func(handler http.HandlerFunc) http.Handler {
		return handlers.CSRFMiddleware(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/import", protected(uploadHandler.HandleImport))
	apiRouter.Handle("POST /api/import/broker-sync", protected(uploadHandler.HandleBrokerSync))
	apiRouter.Handle("GET /api/trades", protected(tradeHandler.HandleGetTrades))
	apiRouter.Handle("POST /api/trades", protected(tradeHandler.HandleCreateTrade))
	apiRouter.Handle("DELETE /api/trades/{id}", protected(tradeHandler.HandleDeleteTrade))
	apiRouter.Handle("DELETE /api/trades", protected(tradeHandler.HandleDeleteAllTrades))
	apiRouter.Handle("GET /api/analytics/calendar", protected(analyticsHandler.HandleGetCalendar))
	apiRouter.Handle("GET /api/analytics/dashboard", protected(analyticsHandler.HandleGetDashboard))
	apiRouter.Handle("GET /api/analytics/time-of-day", protected(analyticsHandler.HandleGetTimeOfDay))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Tradefolio backend is running"})
			return
		}
		http.NotFound(w, r)
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
