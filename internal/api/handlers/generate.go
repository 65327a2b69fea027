package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibzlabs/vibz-api/internal/apperr"
	"github.com/vibzlabs/vibz-api/internal/config"
	"github.com/vibzlabs/vibz-api/internal/describe"
	"github.com/vibzlabs/vibz-api/internal/logger"
	"github.com/vibzlabs/vibz-api/internal/metrics"
	"github.com/vibzlabs/vibz-api/internal/musicgen"
	"github.com/vibzlabs/vibz-api/internal/observability"
	"github.com/vibzlabs/vibz-api/internal/prompt"
)

const (
	modelTypeBaseline  = "baseline"
	modelTypeFinetuned = "finetuned"

	maxPromptChars = 2000

	minDurationSec     = 20
	maxDurationSec     = 45
	defaultDurationSec = 30

	minTemperature     = 0.1
	maxTemperature     = 2.0
	defaultTemperature = 1.0

	minTopK     = 1
	maxTopK     = 1000
	defaultTopK = 250

	maxSeed = 2_000_000_000
)

// GenerateHandler orchestrates describers, prompt composition and the
// generation engine for both generation endpoints.
type GenerateHandler struct {
	engine       *musicgen.Engine
	factory      *describe.Factory
	providerName string
	cloudwatch   *metrics.Client
	sentry       *metrics.SentryMetrics
}

// NewGenerateHandler creates the handler shared by both endpoints.
func NewGenerateHandler(cfg *config.Config, engine *musicgen.Engine, factory *describe.Factory, cw *metrics.Client) *GenerateHandler {
	return &GenerateHandler{
		engine:       engine,
		factory:      factory,
		providerName: cfg.DescribeProvider,
		cloudwatch:   cw,
		sentry:       metrics.NewSentryMetrics(),
	}
}

// GenerateTextRequest is the JSON body of POST /generate/text. Pointer
// fields distinguish "absent, use default" from explicit zero values.
type GenerateTextRequest struct {
	ModelType   string   `json:"model_type"`
	Prompt      string   `json:"prompt" binding:"required"`
	DurationSec *int     `json:"duration_sec"`
	Temperature *float64 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	Seed        *int64   `json:"seed"`
}

// GenerateResponse is the shared response shape of both generation
// endpoints.
type GenerateResponse struct {
	AudioID     string `json:"audio_id"`
	UsedPrompt  string `json:"used_prompt"`
	SampleRate  int    `json:"sample_rate"`
	DownloadURL string `json:"download_url"`
	MetaURL     string `json:"meta_url"`
}

// GenerateText handles POST /generate/text: text prompt only, no
// describers involved.
func (h *GenerateHandler) GenerateText(c *gin.Context) {
	var req GenerateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.Validation, "%s", err.Error()))
		return
	}

	params, err := resolveParams(req.ModelType, req.Prompt, req.DurationSec, req.Temperature, req.TopK, req.Seed)
	if err != nil {
		respondError(c, err)
		return
	}

	h.runGeneration(c, params)
}

// Generate handles POST /generate: multipart form with optional image and
// voice uploads alongside text and generation parameters.
func (h *GenerateHandler) Generate(c *gin.Context) {
	modelType := c.DefaultPostForm("model_type", modelTypeBaseline)
	textPrompt := c.PostForm("text_prompt")

	durationSec, err := formInt(c, "duration_sec", defaultDurationSec)
	if err != nil {
		respondError(c, err)
		return
	}
	temperature, err := formFloat(c, "temperature", defaultTemperature)
	if err != nil {
		respondError(c, err)
		return
	}
	topK, err := formInt(c, "top_k", defaultTopK)
	if err != nil {
		respondError(c, err)
		return
	}
	seed, err := formSeed(c, "seed")
	if err != nil {
		respondError(c, err)
		return
	}

	params, err := resolveParams(modelType, textPrompt, &durationSec, &temperature, &topK, seed)
	if err != nil {
		respondError(c, err)
		return
	}
	// the text prompt may be empty on the multi-modal endpoint
	params.prompt = strings.TrimSpace(textPrompt)

	imageDesc, voiceEmotion, voiceTranscript, err := h.describeUploads(c, params.prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	params.prompt = prompt.Compose(params.prompt, imageDesc, voiceEmotion, voiceTranscript)
	h.runGeneration(c, params)
}

// describeUploads runs the vision and voice describers over whichever
// uploads are present, strictly sequentially.
func (h *GenerateHandler) describeUploads(c *gin.Context, userTheme string) (imageDesc, voiceEmotion, voiceTranscript string, err error) {
	ctx := c.Request.Context()

	imageFile, imageErr := c.FormFile("image")
	voiceFile, voiceErr := c.FormFile("voice")
	if imageErr != nil && imageErr != http.ErrMissingFile {
		return "", "", "", apperr.New(apperr.Validation, "invalid image upload: %s", imageErr.Error())
	}
	if voiceErr != nil && voiceErr != http.ErrMissingFile {
		return "", "", "", apperr.New(apperr.Validation, "invalid voice upload: %s", voiceErr.Error())
	}
	if imageFile == nil && voiceFile == nil {
		return "", "", "", nil
	}

	// content-type checks happen before any describer call
	var imageBytes []byte
	var imageType string
	if imageFile != nil {
		imageType = imageFile.Header.Get("Content-Type")
		if !strings.HasPrefix(imageType, "image/") {
			return "", "", "", apperr.New(apperr.Validation, "Uploaded file is not an image")
		}
		if imageBytes, err = readUpload(imageFile); err != nil {
			return "", "", "", err
		}
	}

	var voiceBytes []byte
	if voiceFile != nil {
		voiceType := voiceFile.Header.Get("Content-Type")
		if !strings.HasPrefix(voiceType, "audio/") {
			return "", "", "", apperr.New(apperr.Validation, "Uploaded voice file is not audio")
		}
		if voiceType != "audio/wav" && voiceType != "audio/x-wav" {
			return "", "", "", apperr.New(apperr.Validation, "Unsupported audio format: %s", voiceType)
		}
		if voiceBytes, err = readUpload(voiceFile); err != nil {
			return "", "", "", err
		}
	}

	provider, err := h.factory.GetProvider(ctx, h.providerName)
	if err != nil {
		return "", "", "", apperr.Wrap(apperr.Upstream, err)
	}

	trace := observability.GetClient().StartTrace(ctx, "generate.multimodal", map[string]interface{}{
		"request_id": c.GetString("request_id"),
		"provider":   provider.Name(),
	})
	defer trace.Finish()

	if imageFile != nil {
		start := time.Now()
		gen := trace.Generation("describe_image", provider.Name(), nil)
		imageDesc, err = provider.DescribeImage(ctx, imageBytes, imageType, userTheme)
		if err != nil {
			gen.SetLevel("ERROR")
			gen.Finish()
			return "", "", "", apperr.Wrap(apperr.Upstream, fmt.Errorf("Image analysis failed: %w", err))
		}
		gen.Output(imageDesc)
		gen.Finish()
		h.cloudwatch.RecordDescriberCall(provider.Name(), "image", time.Since(start))
		h.sentry.RecordDescriberCall(ctx, provider.Name(), "image", time.Since(start))
	}

	if voiceFile != nil {
		start := time.Now()
		gen := trace.Generation("analyze_voice", provider.Name(), nil)
		voiceEmotion, err = provider.AnalyzeVoice(ctx, voiceBytes)
		if err != nil {
			gen.SetLevel("ERROR")
			gen.Finish()
			return "", "", "", apperr.Wrap(apperr.Upstream, fmt.Errorf("Voice analysis failed: %w", err))
		}
		gen.Output(voiceEmotion)
		gen.Finish()

		gen = trace.Generation("transcribe", provider.Name(), nil)
		voiceTranscript, err = provider.Transcribe(ctx, voiceBytes)
		if err != nil {
			gen.SetLevel("ERROR")
			gen.Finish()
			return "", "", "", apperr.Wrap(apperr.Upstream, fmt.Errorf("Transcription failed: %w", err))
		}
		gen.Output(voiceTranscript)
		gen.Finish()
		h.cloudwatch.RecordDescriberCall(provider.Name(), "voice", time.Since(start))
		h.sentry.RecordDescriberCall(ctx, provider.Name(), "voice", time.Since(start))
	}

	return imageDesc, voiceEmotion, voiceTranscript, nil
}

// runGeneration invokes the engine and writes the shared response shape.
func (h *GenerateHandler) runGeneration(c *gin.Context, params *generationParams) {
	start := time.Now()
	result, err := h.engine.Generate(c.Request.Context(), musicgen.GenerateParams{
		Prompt:      params.prompt,
		DurationSec: params.durationSec,
		Temperature: params.temperature,
		TopK:        params.topK,
		Seed:        params.seed,
	})
	duration := time.Since(start)
	h.cloudwatch.RecordGenerationDuration(duration, err == nil)
	h.sentry.RecordGenerationDuration(c.Request.Context(), duration, err == nil)
	if err != nil {
		logger.Error("Generation failed", err, logger.WithContext(c))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		AudioID:     result.AudioID,
		UsedPrompt:  result.UsedPrompt,
		SampleRate:  result.SampleRate,
		DownloadURL: fmt.Sprintf("/audio/%s.wav", result.AudioID),
		MetaURL:     fmt.Sprintf("/meta/%s.json", result.AudioID),
	})
}

// generationParams are the validated controls for one request.
type generationParams struct {
	prompt      string
	durationSec int
	temperature float64
	topK        int
	seed        *int64
}

// resolveParams applies defaults, range-checks everything and rejects the
// unimplemented fine-tuned variant before any work begins.
func resolveParams(modelType, promptText string, durationSec *int, temperature *float64, topK *int, seed *int64) (*generationParams, error) {
	if modelType == "" {
		modelType = modelTypeBaseline
	}
	switch modelType {
	case modelTypeBaseline:
	case modelTypeFinetuned:
		return nil, apperr.New(apperr.NotImplemented, "finetuned model not available yet")
	default:
		return nil, apperr.New(apperr.Validation, "model_type must be baseline or finetuned")
	}

	if len(promptText) > maxPromptChars {
		return nil, apperr.New(apperr.Validation, "prompt must be at most %d characters", maxPromptChars)
	}

	params := &generationParams{
		prompt:      strings.TrimSpace(promptText),
		durationSec: defaultDurationSec,
		temperature: defaultTemperature,
		topK:        defaultTopK,
		seed:        seed,
	}
	if durationSec != nil {
		params.durationSec = *durationSec
	}
	if temperature != nil {
		params.temperature = *temperature
	}
	if topK != nil {
		params.topK = *topK
	}

	if params.durationSec < minDurationSec || params.durationSec > maxDurationSec {
		return nil, apperr.New(apperr.Validation, "duration_sec must be between %d and %d", minDurationSec, maxDurationSec)
	}
	if params.temperature < minTemperature || params.temperature > maxTemperature {
		return nil, apperr.New(apperr.Validation, "temperature must be between %g and %g", minTemperature, maxTemperature)
	}
	if params.topK < minTopK || params.topK > maxTopK {
		return nil, apperr.New(apperr.Validation, "top_k must be between %d and %d", minTopK, maxTopK)
	}
	if seed != nil && (*seed < 0 || *seed > maxSeed) {
		return nil, apperr.New(apperr.Validation, "seed must be between 0 and %d", maxSeed)
	}

	return params, nil
}

func formInt(c *gin.Context, field string, defaultValue int) (int, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "%s must be an integer", field)
	}
	return value, nil
}

func formFloat(c *gin.Context, field string, defaultValue float64) (float64, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "%s must be a number", field)
	}
	return value, nil
}

func formSeed(c *gin.Context, field string) (*int64, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "%s must be an integer", field)
	}
	return &value, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, fmt.Errorf("read upload: %w", err))
	}
	return data, nil
}

// respondError maps an error to its transport status via apperr.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"detail": err.Error()})
}
