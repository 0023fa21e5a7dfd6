package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"truth-market/internal/auth"
	"truth-market/internal/blockchain"
	"truth-market/internal/config"
	"truth-market/internal/database"
	"truth-market/internal/handlers"
	"truth-market/internal/jobs"
	"truth-market/internal/ledger"
	"truth-market/internal/notify"
	"truth-market/internal/repository"
	"truth-market/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the engine state singleton
	repo := repository.NewRepository(database.GetDB())
	if err := repo.EnsureEngineState(context.Background()); err != nil {
		log.Fatalf("Failed to seed engine state: %v", err)
	}

	// Initialize Solana client
	solanaClient := blockchain.NewSolanaClient(
		cfg.Solana.RPCEndpoint,
		cfg.Solana.TreasuryWallet,
		cfg.Solana.TokenMint,
		cfg.Solana.ServerKey,
	)

	// Initialize the vault program when one is configured; without it the
	// stake vault runs in book-only mode.
	var vaultProgram *blockchain.VaultProgram
	if cfg.Solana.VaultProgramID != "" {
		vaultProgram, err = blockchain.NewVaultProgram(cfg.Solana.RPCEndpoint, cfg.Solana.VaultProgramID)
		if err != nil {
			log.Printf("Warning: invalid vault program ID, on-chain settlement disabled: %v", err)
		}
	}
	stakeVault := blockchain.NewStakeVault(solanaClient, vaultProgram)

	// Initialize the balance book
	book := ledger.NewVaultLedger(database.GetDB())

	// Settlement event sinks
	notifier := notify.Fanout{notify.LogNotifier{}}
	if cfg.Notify.WebhookURL != "" {
		notifier = append(notifier, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}

	validationWindow := time.Duration(cfg.Engine.ValidationWindowHours) * time.Hour

	// Initialize services
	registryService := services.NewRegistryService(database.GetDB(), book, cfg.Engine.MinStake)
	marketService := services.NewMarketService(database.GetDB())
	voteService := services.NewVoteService(database.GetDB(), validationWindow)
	finalizeService := services.NewFinalizeService(database.GetDB(), book, stakeVault, notifier, validationWindow)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler()
	oracleHandler := handlers.NewOracleHandler(registryService, stakeVault)
	marketHandler := handlers.NewMarketHandler(marketService)
	voteHandler := handlers.NewVoteHandler(voteService, marketService)
	finalizeHandler := handlers.NewFinalizeHandler(finalizeService)
	ledgerHandler := handlers.NewLedgerHandler(book, stakeVault)
	adminHandler := handlers.NewAdminHandler(database.GetDB(), marketService, stakeVault)

	// Start the settlement job
	finalizerJob := jobs.NewMarketFinalizer(
		finalizeService,
		time.Duration(cfg.Engine.FinalizerIntervalSeconds)*time.Second,
	)
	go finalizerJob.Start()

	// Start the claims feed importer
	importerService := services.NewMarketImporterService(
		database.GetDB(),
		cfg.Polymarket.BaseURL,
		cfg.Polymarket.APIKey,
		cfg.Polymarket.Secret,
		cfg.Polymarket.Passphrase,
	)
	importerJob := jobs.NewMarketImporterJob(
		importerService,
		time.Duration(cfg.Engine.ImporterIntervalMinutes)*time.Minute,
	)
	go importerJob.Start()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
	}

	// Public market routes
	router.GET("/api/markets", marketHandler.GetMarkets)
	router.GET("/api/markets/:id", marketHandler.GetMarketByID)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Oracle endpoints
		api.POST("/oracles/register", oracleHandler.Register)
		api.GET("/oracles", oracleHandler.GetOracles)
		api.GET("/oracles/me", oracleHandler.GetMe)
		api.GET("/oracles/:address", oracleHandler.GetOracle)

		// Market endpoints
		api.POST("/markets", marketHandler.CreateMarket)
		api.POST("/markets/:id/votes", voteHandler.SubmitVote)
		api.GET("/markets/:id/votes", voteHandler.GetMarketVotes)
		api.POST("/markets/:id/finalize", finalizeHandler.FinalizeMarket)
		api.GET("/markets/:id/finalization", finalizeHandler.GetFinalizationRecord)

		// Vote history
		api.GET("/votes", voteHandler.GetMyVotes)

		// Ledger endpoints
		api.POST("/ledger/deposit", ledgerHandler.Deposit)
		api.GET("/ledger/account", ledgerHandler.GetAccount)
		api.GET("/ledger/entries", ledgerHandler.GetEntries)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/logs", adminHandler.GetAdminLogs)
		admin.GET("/diagnostics", adminHandler.GetDiagnostics)

		// Market management
		admin.GET("/markets", adminHandler.GetMarkets)
		admin.PUT("/markets/:id/volume", adminHandler.UpdateMarketVolume)

		// Admin management
		admin.POST("/admins", adminHandler.SuperAdminMiddleware(), adminHandler.PromoteAdmin)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	finalizerJob.Stop()
	importerJob.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
