package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/prasaja/wicara/adapters/genlive"
	"github.com/prasaja/wicara/adapters/media"
	"github.com/prasaja/wicara/adapters/speaker"
	"github.com/prasaja/wicara/adapters/wslive"
	"github.com/prasaja/wicara/domain/repositories"
	"github.com/prasaja/wicara/internal/api"
	"github.com/prasaja/wicara/internal/auth"
	"github.com/prasaja/wicara/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET environment variable is required")
	}
	apiKey := os.Getenv("WICARA_API_KEY")
	if apiKey == "" {
		logger.Fatal("WICARA_API_KEY environment variable is required")
	}

	authSvc, err := auth.NewService([]byte(secret))
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	transport, err := buildTransport(logger)
	if err != nil {
		logger.Fatal("Failed to initialize live transport", zap.Error(err))
	}

	output, err := speaker.NewOutput(speaker.Config{}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speaker output", zap.Error(err))
	}
	defer output.Close()

	source := media.NewSynthetic(media.Config{})

	controller, err := session.NewController(transport, source, output, session.Config{
		SystemInstruction: os.Getenv("WICARA_SYSTEM_INSTRUCTION"),
		Model:             os.Getenv("WICARA_MODEL"),
		Voice:             os.Getenv("WICARA_VOICE"),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session controller", zap.Error(err))
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, controller, authSvc, apiKey, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	controller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildTransport prefers a self-hosted gateway when one is configured and
// falls back to the direct Gemini Live API.
func buildTransport(logger *zap.Logger) (repositories.LiveTransport, error) {
	if gatewayURL := os.Getenv("WICARA_GATEWAY_URL"); gatewayURL != "" {
		return wslive.NewTransport(gatewayURL, os.Getenv("WICARA_GATEWAY_TOKEN"), logger)
	}
	return genlive.NewTransport(context.Background(), logger)
}
