package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"liedetect/internal/analysis"
	"liedetect/internal/api"
	"liedetect/internal/config"
	"liedetect/internal/gateway"
	"liedetect/internal/llm"
	"liedetect/internal/logger"
	"liedetect/internal/storage"
	"liedetect/internal/store"
	"liedetect/internal/transcribe"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logr := logger.NewLogger(true)
	ctx := context.Background()

	sessions, err := store.NewSessionStore(cfg.MetaRoot())
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	media, err := storage.NewMediaStorage(ctx, cfg, sessions, logr)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	var invoker gateway.Invoker
	if cfg.UseMockServices {
		logr.Info("mock services enabled, using deterministic scoring gateway")
		invoker = gateway.NewMockGateway()
	} else {
		invoker, err = gateway.NewSageMakerGateway(ctx, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("Failed to initialize scoring gateway: %v", err)
		}
	}

	whisper := transcribe.NewWhisperService(cfg, sessions, media, logr)
	weights := llm.NewEmotionWeightsService(cfg, sessions, logr)
	analysisSvc := analysis.NewAnalysisService(cfg, sessions, invoker, logr)
	enrichment := analysis.NewEnrichmentService(sessions, weights, logr)

	handler := api.NewHandler(cfg, logr, sessions, media, whisper, analysisSvc, enrichment)

	r := gin.Default()
	r.Use(corsMiddleware())
	api.RegisterRoutes(r, handler)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		logr.Info(fmt.Sprintf("liedetect backend running on :%s", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	logr.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	} else {
		logr.Info("Server stopped gracefully.")
	}
}

// corsMiddleware adds CORS headers for the mobile app
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
