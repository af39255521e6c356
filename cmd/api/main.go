package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medivault-api/internal/config"
	"github.com/harentsoaR/medivault-api/internal/handlers"
	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/metrics"
	"github.com/harentsoaR/medivault-api/internal/services"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/harentsoaR/medivault-api/internal/utils"
)

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if !foundEnv {
		log.Info("No .env file found, relying on environment variables.")
	}
	log.WithFields(map[string]interface{}{
		"port":         cfg.Port,
		"store_driver": cfg.StoreDriver,
	}).Info("Starting MediVault API")

	// --- Persistent Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backend, err := openBackend(ctx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	repo := store.New(backend, log)
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	// --- Initialize Services ---
	session := services.NewSession(repo, log)
	if err := session.Restore(context.Background()); err != nil {
		log.WithError(err).Warn("Failed to restore session")
	}
	authSvc := services.NewAuthService(repo, session, log)
	recordSvc := services.NewRecordService(repo, services.NewShareTokens(cfg.ShareScheme), cfg.SimulatedLatency, log)
	assistant := services.NewAssistant(cfg.SimulatedLatency)
	documents := services.NewDocumentExtractor(cfg.SimulatedLatency)
	notificationSvc := services.NewNotificationService(cfg.TextbeltAPIKey, log)
	m := metrics.New()

	h := handlers.NewHandler(
		authSvc,
		recordSvc,
		assistant,
		documents,
		notificationSvc,
		utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		m,
		log,
	)

	// --- Gin Router ---
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), m.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", m.Handler())
	h.Routes(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		log.WithError(err).Error("HTTP server failed")
	}

	log.Info("Shutting down MediVault API...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return store.OpenLevelDB(cfg.LevelDBPath)
	}
}
