package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxlab/mailbridge/api/handlers"
	"github.com/inboxlab/mailbridge/api/middleware"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
	"github.com/inboxlab/mailbridge/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, log logger.Logger, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(s, log)

	// Health check endpoint (no auth)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILBRIDGE-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware()) // Add tracing for all /v1/* endpoints
	{
		connections := api.Group("/connections")
		{
			connections.POST("/test", apiHandlers.Mail.TestConnection())
		}

		messages := api.Group("/messages")
		{
			messages.POST("/fetch", apiHandlers.Mail.FetchMessages())
			messages.POST("/send", apiHandlers.Mail.SendMessage())
			messages.POST("/read", apiHandlers.Mail.MarkRead())
		}

		folders := api.Group("/folders")
		{
			folders.POST("/list", apiHandlers.Mail.ListFolders())
		}

		settings := api.Group("/settings")
		{
			settings.POST("/resolve", apiHandlers.Settings.Resolve())
		}

		activity := api.Group("/activity")
		{
			activity.POST("/invoke", apiHandlers.Activity.Invoke())
		}
	}
}
