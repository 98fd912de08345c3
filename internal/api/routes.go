// Package api exposes the HTTP control surface: token issuance and the
// call-control endpoints that drive a session controller.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/internal/auth"
)

// Controller matches internal/session.Controller without importing it, so the
// wiring stays one-directional.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	State() entities.SessionState
	LastError() error
	Messages() []entities.ChatMessage
	Partial(role entities.Role) string
	Emotion() entities.Emotion
	SetMuted(muted bool)
	Muted() bool
	SetVideoEnabled(enabled bool)
	VideoEnabled() bool
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, controller Controller, authSvc *auth.Service, apiKey string, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "wicara",
		})
	})

	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", func(c echo.Context) error {
		return issueToken(c, authSvc, apiKey, logger)
	})

	call := v1.Group("/call", requireToken(authSvc, logger))
	call.POST("/start", func(c echo.Context) error { return startCall(c, controller, logger) })
	call.POST("/stop", func(c echo.Context) error { return stopCall(c, controller) })
	call.GET("/state", func(c echo.Context) error { return callState(c, controller) })
	call.GET("/messages", func(c echo.Context) error { return callMessages(c, controller) })
	call.GET("/partials", func(c echo.Context) error { return callPartials(c, controller) })
	call.GET("/emotion", func(c echo.Context) error { return callEmotion(c, controller) })
	call.POST("/mute", func(c echo.Context) error { return setMute(c, controller) })
	call.POST("/video", func(c echo.Context) error { return setVideo(c, controller) })
}

// requireToken validates the Authorization bearer token on protected routes
func requireToken(authSvc *auth.Service, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := ""
			if strings.HasPrefix(header, "Bearer ") {
				token = header[len("Bearer "):]
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}
			claims, err := authSvc.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}
			c.Set("client_id", claims.ClientID)
			return next(c)
		}
	}
}

func issueToken(c echo.Context, authSvc *auth.Service, apiKey string, logger *zap.Logger) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.ClientID == "" || req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Client ID and API key are required",
		})
	}
	if req.APIKey != apiKey {
		logger.Warn("Token request rejected", zap.String("client_id", req.ClientID))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid API key",
		})
	}

	token, expiresAt, err := authSvc.GenerateToken(req.ClientID)
	if err != nil {
		logger.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Token issued", zap.String("client_id", req.ClientID))
	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  req.ClientID,
	})
}

func startCall(c echo.Context, controller Controller, logger *zap.Logger) error {
	if err := controller.Start(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, entities.ErrSessionActive):
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "session_active",
				Message: "A call is already in progress",
			})
		case errors.Is(err, entities.ErrNoMedia):
			return c.JSON(http.StatusPreconditionFailed, ErrorResponse{
				Error:   "no_media",
				Message: "Local media is not available",
			})
		default:
			logger.Error("Call start failed", zap.Error(err))
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "transport_error",
				Message: err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, CallStateResponse{State: controller.State()})
}

func stopCall(c echo.Context, controller Controller) error {
	controller.Stop()
	return c.JSON(http.StatusOK, CallStateResponse{State: controller.State()})
}

func callState(c echo.Context, controller Controller) error {
	resp := CallStateResponse{State: controller.State()}
	if err := controller.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func callMessages(c echo.Context, controller Controller) error {
	messages := controller.Messages()
	if messages == nil {
		messages = []entities.ChatMessage{}
	}
	return c.JSON(http.StatusOK, MessagesResponse{Messages: messages})
}

func callPartials(c echo.Context, controller Controller) error {
	return c.JSON(http.StatusOK, PartialsResponse{
		User:  controller.Partial(entities.RoleUser),
		Model: controller.Partial(entities.RoleModel),
	})
}

func callEmotion(c echo.Context, controller Controller) error {
	return c.JSON(http.StatusOK, EmotionResponse{Emotion: controller.Emotion()})
}

func setMute(c echo.Context, controller Controller) error {
	var req MuteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	controller.SetMuted(req.Muted)
	return c.JSON(http.StatusOK, map[string]bool{"muted": controller.Muted()})
}

func setVideo(c echo.Context, controller Controller) error {
	var req VideoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	controller.SetVideoEnabled(req.Enabled)
	return c.JSON(http.StatusOK, map[string]bool{"video_enabled": controller.VideoEnabled()})
}
