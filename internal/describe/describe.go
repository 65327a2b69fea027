package describe

import (
	"context"
	"fmt"
	"strings"
)

// Provider converts non-text modalities into text fragments for prompt
// composition. Implementations make one network call per method and do not
// retry; upstream failures surface to the caller.
type Provider interface {
	// DescribeImage returns a short musical-intent description of the
	// image (mood, energy, narrative arc, instrument suggestions).
	DescribeImage(ctx context.Context, imageBytes []byte, mimeType, userTheme string) (string, error)

	// AnalyzeVoice infers emotion/energy/tension and a narrative arc from
	// the prosody of a spoken WAV voice note.
	AnalyzeVoice(ctx context.Context, wavBytes []byte) (string, error)

	// Transcribe converts a spoken WAV voice note to text. An empty
	// transcript is not an error.
	Transcribe(ctx context.Context, wavBytes []byte) (string, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

const visionInstruction = `You are helping generate instrumental music from an image.
Describe the image as musical intent with:
- mood/emotion (valence words)
- energy level (calm/medium/intense)
- a 3-part narrative arc over 30 seconds (intro -> build -> release)
- 2-4 instrument suggestions
Keep it concise (max ~80 words). No lists longer than 4 items.`

const voiceInstruction = `Analyze this spoken voice note as an emotional signal for instrumental music generation.
Infer from PROSODY (pace, intensity, pauses, pitch variation) the following:
- mood/emotion keywords (2-4)
- energy level: low / medium / high
- tension level: low / medium / high
- a 3-part narrative arc over ~30s: intro -> build -> release
Return ONE compact paragraph (max ~80 words). No bullet lists.`

// themeLine renders the optional user theme for the vision call.
func themeLine(userTheme string) string {
	theme := strings.TrimSpace(userTheme)
	if theme == "" {
		theme = "N/A"
	}
	return fmt.Sprintf("User theme (optional): %s", theme)
}

// Config holds everything the factory needs to build providers.
type Config struct {
	OpenAIAPIKey    string
	GeminiAPIKey    string
	VisionModel     string
	AudioModel      string
	TranscribeModel string
	GeminiModel     string
}

// Factory creates providers based on an explicit provider choice or a model
// name prefix.
type Factory struct {
	cfg Config
}

// NewFactory creates a new provider factory.
func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

// GetProvider returns the provider for the given name, or infers one from
// the model name when the name is empty.
func (f *Factory) GetProvider(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "", "openai":
		if f.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.cfg.OpenAIAPIKey, f.cfg.VisionModel, f.cfg.AudioModel, f.cfg.TranscribeModel), nil

	case "gemini":
		if f.cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiProvider(ctx, f.cfg.GeminiAPIKey, f.cfg.GeminiModel)

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: openai, gemini)", providerName)
	}
}
