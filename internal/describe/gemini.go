package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiUserRole     = "user"
)

// GeminiProvider implements the Provider interface using Google's Gemini
// API. One multimodal model serves all three describer calls.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// DescribeImage sends the image as inline data with the instruction text.
func (p *GeminiProvider) DescribeImage(ctx context.Context, imageBytes []byte, mimeType, userTheme string) (string, error) {
	converted, convertedType, err := ensureSupportedImage(imageBytes, mimeType)
	if err != nil {
		return "", err
	}

	return p.generate(ctx, "gemini.describe_image", []*genai.Part{
		{Text: visionInstruction},
		{Text: themeLine(userTheme)},
		{InlineData: &genai.Blob{MIMEType: convertedType, Data: converted}},
	})
}

// AnalyzeVoice sends the WAV voice note as inline audio data.
func (p *GeminiProvider) AnalyzeVoice(ctx context.Context, wavBytes []byte) (string, error) {
	return p.generate(ctx, "gemini.analyze_voice", []*genai.Part{
		{Text: voiceInstruction},
		{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: wavBytes}},
	})
}

// Transcribe asks the model for a verbatim transcript of the voice note.
func (p *GeminiProvider) Transcribe(ctx context.Context, wavBytes []byte) (string, error) {
	return p.generate(ctx, "gemini.transcribe", []*genai.Part{
		{Text: "Transcribe this voice note verbatim. Return only the spoken words, nothing else."},
		{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: wavBytes}},
	})
}

func (p *GeminiProvider) generate(ctx context.Context, spanOp string, parts []*genai.Part) (string, error) {
	span := sentry.StartSpan(ctx, spanOp)
	span.SetTag("model", p.model)
	defer span.Finish()

	contents := []*genai.Content{{Role: geminiUserRole, Parts: parts}}
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	return strings.TrimSpace(result.Text()), nil
}
