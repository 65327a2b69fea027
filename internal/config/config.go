package config

import "os"

// Config holds the application configuration
// Note: This is a stateless configuration - the only durable state the
// service owns is the outputs directory on disk.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Describer API keys
	OpenAIAPIKey string // OpenAI API key for vision/audio/transcribe models
	GeminiAPIKey string // Google Gemini API key

	// Describer models
	DescribeProvider string // "openai" (default) or "gemini"
	VisionModel      string // image -> musical intent
	AudioModel       string // voice note -> emotion/energy
	TranscribeModel  string // voice note -> transcript
	GeminiModel      string // used for all describer calls when provider is gemini

	// Generation engine
	RunnerURL    string // MusicGen inference runner base URL
	MusicModelID string // model id the runner loads from the hub
	OutputsDir   string // flat directory of {uuid}.wav / {uuid}.json pairs

	// Frontend
	FrontendDist string // prebuilt SPA bundle, served on unmatched routes

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		DescribeProvider:  getEnv("DESCRIBE_PROVIDER", "openai"),
		VisionModel:       getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
		AudioModel:        getEnv("OPENAI_AUDIO_MODEL", "gpt-4o-mini-audio-preview"),
		TranscribeModel:   getEnv("OPENAI_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		GeminiModel:       getEnv("GEMINI_DESCRIBE_MODEL", "gemini-2.5-flash"),
		RunnerURL:         getEnv("MUSICGEN_RUNNER_URL", "http://127.0.0.1:8501"),
		MusicModelID:      getEnv("MUSICGEN_MODEL_ID", "facebook/musicgen-small"),
		OutputsDir:        getEnv("OUTPUTS_DIR", "outputs"),
		FrontendDist:      getEnv("FRONTEND_DIST", "frontend/dist"),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
