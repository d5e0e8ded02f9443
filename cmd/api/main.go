package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vton-rest-api/internal/ai"
	"vton-rest-api/internal/config"
	"vton-rest-api/internal/handler"
	"vton-rest-api/internal/middleware"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/router"
	"vton-rest-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting VTON API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize account repository based on config
	var accountRepo repository.AccountRepository
	switch cfg.AccountDB.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("MySQL ping failed: %v", err)
		}
		accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
		log.Println("MySQL account repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteAccountRepository(cfg.AccountDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite account repository: %v", err)
		}
		accountRepo = sqliteRepo
		log.Println("SQLite account repository initialized")
	}
	defer accountRepo.Close()

	// Ledger repository (generation history, checkins, purchases)
	ledgerRepo, err := repository.NewSQLiteLedgerRepository(cfg.AccountDB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize ledger repository: %v", err)
	}
	defer ledgerRepo.Close()
	log.Println("SQLite ledger repository initialized")

	// Redis client for session tokens
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("Redis connection failed: %v", err)
	}
	cancel()
	log.Println("Redis client initialized")

	// Initialize services
	tokenService := service.NewTokenService(redisClient)

	aiClient := ai.NewClient(ai.Config{
		APIURL:  cfg.AI.APIURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	classifier := service.NewClassifier(aiClient, cfg.AI.Temperature, cfg.AI.ClassifyTimeout)

	generationService := service.NewGenerationService(accountRepo, ledgerRepo, classifier, aiClient, service.GenerationConfig{
		MaxRetries:  cfg.AI.MaxRetries,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	})
	creditsService := service.NewCreditsService(accountRepo, ledgerRepo, cfg.Credits.CheckinAmount)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	authHandler := handler.NewAuthHandler(tokenService, accountRepo, cfg.Credits.WelcomeAmount)
	generationHandler := handler.NewGenerationHandler(generationService, ledgerRepo)
	creditsHandler := handler.NewCreditsHandler(creditsService, accountRepo, ledgerRepo)
	adminHandler := handler.NewAdminHandler(creditsService, ledgerRepo, cfg.AccountDB.Type)

	handler.ReadyChecks = []handler.ReadyCheck{
		{Name: "redis", Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		}},
		{Name: "database", Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := accountRepo.GetAccountByID(ctx, 0)
			if err == repository.ErrAccountNotFound {
				return nil
			}
			return err
		}},
	}

	// Create middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})
	adminMiddleware := middleware.NewAdminKeyMiddleware(cfg.App.LoginKey)

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AuthHandler:       authHandler,
		GenerationHandler: generationHandler,
		CreditsHandler:    creditsHandler,
		AdminHandler:      adminHandler,
		AuthMiddleware:    authMiddleware,
		AdminMiddleware:   adminMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
