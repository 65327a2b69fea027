package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vibzlabs/vibz-api/internal/api/handlers"
	apimiddleware "github.com/vibzlabs/vibz-api/internal/api/middleware"
	"github.com/vibzlabs/vibz-api/internal/config"
	"github.com/vibzlabs/vibz-api/internal/describe"
	"github.com/vibzlabs/vibz-api/internal/metrics"
	"github.com/vibzlabs/vibz-api/internal/musicgen"
)

func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()

	// CloudWatch custom metrics (enabled in production only)
	cloudwatchClient, _ := metrics.NewClient(context.Background(), cfg.Environment)

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cloudwatchClient))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// Generation engine over the inference runner
	runner := musicgen.NewRunner(cfg.RunnerURL)
	engine := musicgen.NewEngine(runner, cfg.MusicModelID, cfg.OutputsDir)

	// Describer providers
	factory := describe.NewFactory(describe.Config{
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		VisionModel:     cfg.VisionModel,
		AudioModel:      cfg.AudioModel,
		TranscribeModel: cfg.TranscribeModel,
		GeminiModel:     cfg.GeminiModel,
	})

	// Generation endpoints
	genHandler := handlers.NewGenerateHandler(cfg, engine, factory, cloudwatchClient)
	router.POST("/generate/text", genHandler.GenerateText)
	router.POST("/generate", genHandler.Generate)

	// Artifact retrieval
	artifactsHandler := handlers.NewArtifactsHandler(cfg.OutputsDir)
	router.GET("/audio/:filename", artifactsHandler.GetAudio)
	router.GET("/meta/:filename", artifactsHandler.GetMeta)

	// Static frontend fallback
	router.NoRoute(handlers.SPAFallback(cfg.FrontendDist))

	return router
}
