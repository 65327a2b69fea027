package describe

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vibzlabs/vibz-api/internal/logger"
)

const (
	providerNameOpenAI = "openai"

	// keeps descriptions near the ~80 word target
	maxDescriptionTokens = 200

	wavAudioFormat = "wav"
)

// OpenAIProvider implements the Provider interface using OpenAI's Chat
// Completions and Audio Transcriptions APIs.
type OpenAIProvider struct {
	client          *openai.Client
	visionModel     string
	audioModel      string
	transcribeModel string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, visionModel, audioModel, transcribeModel string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:          &client,
		visionModel:     visionModel,
		audioModel:      audioModel,
		transcribeModel: transcribeModel,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// DescribeImage sends the image plus instruction to the vision model and
// returns the musical-intent description.
func (p *OpenAIProvider) DescribeImage(ctx context.Context, imageBytes []byte, mimeType, userTheme string) (string, error) {
	converted, convertedType, err := ensureSupportedImage(imageBytes, mimeType)
	if err != nil {
		return "", err
	}

	span := sentry.StartSpan(ctx, "openai.describe_image")
	span.SetTag("model", p.visionModel)
	defer span.Finish()

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(visionInstruction),
		openai.TextContentPart(themeLine(userTheme)),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: imageDataURL(converted, convertedType),
		}),
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(p.visionModel),
		Messages:  []openai.ChatCompletionMessageParamUnion{userPartsMessage(parts)},
		MaxTokens: openai.Int(maxDescriptionTokens),
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision response contained no choices")
	}

	logger.Debug("Image described", logger.Fields{
		"model":       p.visionModel,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AnalyzeVoice sends the WAV voice note to an audio-capable chat model and
// extracts an emotion/energy description from whichever content shape the
// model returns.
func (p *OpenAIProvider) AnalyzeVoice(ctx context.Context, wavBytes []byte) (string, error) {
	span := sentry.StartSpan(ctx, "openai.analyze_voice")
	span.SetTag("model", p.audioModel)
	defer span.Finish()

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(voiceInstruction),
		openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   base64.StdEncoding.EncodeToString(wavBytes),
			Format: wavAudioFormat,
		}),
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.audioModel),
		Messages: []openai.ChatCompletionMessageParamUnion{userPartsMessage(parts)},
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return "", fmt.Errorf("voice analysis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("voice analysis response contained no choices")
	}

	return extractMessageText([]byte(resp.Choices[0].Message.RawJSON())), nil
}

// Transcribe converts the WAV voice note to text via the transcriptions
// endpoint. An empty transcript is returned as "".
func (p *OpenAIProvider) Transcribe(ctx context.Context, wavBytes []byte) (string, error) {
	span := sentry.StartSpan(ctx, "openai.transcribe")
	span.SetTag("model", p.transcribeModel)
	defer span.Finish()

	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(p.transcribeModel),
		File:  openai.File(bytes.NewReader(wavBytes), "voice.wav", "audio/wav"),
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// userPartsMessage wraps content parts in a single user message.
func userPartsMessage(parts []openai.ChatCompletionContentPartUnionParam) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	}
}
