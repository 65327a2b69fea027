package musicgen

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/vibzlabs/vibz-api/internal/apperr"
	"github.com/vibzlabs/vibz-api/internal/logger"
)

const (
	// MinDurationSec and MaxDurationSec bound what the engine itself
	// accepts. The API layer enforces a narrower product range on top.
	MinDurationSec = 1
	MaxDurationSec = 60

	// tokensPerSecond maps requested seconds to the model's generation
	// length. Calibrated for musicgen-small; actual output length can
	// drift with model behavior.
	tokensPerSecond = 50

	int16Scale = 32767.0

	outputsDirPerm = 0o755
	metaFilePerm   = 0o644
)

// GenerateParams are the per-call generation controls. They are passed
// through to the runner on every call rather than stored anywhere shared.
type GenerateParams struct {
	Prompt      string
	DurationSec int
	Temperature float64
	TopK        int
	Seed        *int64
}

// Result identifies one generated artifact pair.
type Result struct {
	AudioID     string
	WavPath     string
	JSONPath    string
	SampleRate  int
	UsedPrompt  string
	DurationSec int
}

// Metadata is the sidecar record written next to each waveform.
type Metadata struct {
	AudioID              string  `json:"audio_id"`
	ModelID              string  `json:"model_id"`
	Device               string  `json:"device"`
	DurationSecRequested int     `json:"duration_sec_requested"`
	UsedPrompt           string  `json:"used_prompt"`
	Temperature          float64 `json:"temperature"`
	TopK                 int     `json:"top_k"`
	Seed                 *int64  `json:"seed"`
	SampleRate           int     `json:"sample_rate"`
	GenerationSeconds    float64 `json:"generation_seconds"`
}

// Engine wraps the inference runner and owns the outputs directory. One
// engine instance is shared across all requests; the only guarded mutation
// is the one-time model load.
type Engine struct {
	runner     *Runner
	modelID    string
	outputsDir string

	mu         sync.Mutex
	loaded     bool
	device     string
	sampleRate int
}

// NewEngine creates an engine. The model is not loaded until the first
// Generate call.
func NewEngine(runner *Runner, modelID, outputsDir string) *Engine {
	return &Engine{
		runner:     runner,
		modelID:    modelID,
		outputsDir: outputsDir,
	}
}

// ensureLoaded loads the model on first use. Concurrent first requests are
// serialized by the mutex so at most one load happens; a failed load leaves
// the engine unloaded and the next request retries.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	resp, err := e.runner.Load(ctx, e.modelID)
	if err != nil {
		return apperr.Wrap(apperr.Upstream, fmt.Errorf("load model %s: %w", e.modelID, err))
	}

	e.device = resp.Device
	e.sampleRate = resp.SampleRate
	e.loaded = true

	logger.Info("Model loaded", logger.Fields{
		"model_id":    e.modelID,
		"device":      e.device,
		"sample_rate": e.sampleRate,
	})
	return nil
}

// Generate synthesizes one clip and persists the waveform plus its metadata
// sidecar under the outputs directory.
func (e *Engine) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	if params.DurationSec < MinDurationSec || params.DurationSec > MaxDurationSec {
		return nil, apperr.New(apperr.Validation,
			"duration_sec must be between %d and %d", MinDurationSec, MaxDurationSec)
	}

	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "musicgen.generate")
	span.SetTag("model_id", e.modelID)
	defer span.Finish()

	start := time.Now()
	resp, err := e.runner.Generate(ctx, &GenerateRequest{
		Prompt:       params.Prompt,
		MaxNewTokens: params.DurationSec * tokensPerSecond,
		Temperature:  params.Temperature,
		TopK:         params.TopK,
		Seed:         params.Seed,
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return nil, apperr.Wrap(apperr.Upstream, fmt.Errorf("inference failed: %w", err))
	}
	generationSeconds := time.Since(start).Seconds()

	samples, err := decodeWaveform(resp.Audio, resp.Channels)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err)
	}

	audioID := uuid.New().String()
	result, err := e.persist(audioID, samples, resp.SampleRate, params, generationSeconds)
	if err != nil {
		sentry.CaptureException(err)
		return nil, apperr.Wrap(apperr.Upstream, err)
	}

	logger.Info("Generation completed", logger.Fields{
		"audio_id":           audioID,
		"duration_sec":       params.DurationSec,
		"generation_seconds": generationSeconds,
		"sample_rate":        result.SampleRate,
	})
	return result, nil
}

// decodeWaveform converts the runner's base64 float32 payload into clipped
// int16 samples, keeping only the first channel when the model emits more.
func decodeWaveform(audioB64 string, channels int) ([]int16, error) {
	raw, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, fmt.Errorf("decode waveform: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("waveform length %d is not float32-aligned", len(raw))
	}

	total := len(raw) / 4
	if channels > 1 {
		// channel-major layout: the first channel is the leading block
		total /= channels
	}

	samples := make([]int16, total)
	for i := 0; i < total; i++ {
		f := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		v := float64(f)
		// clip, never wrap
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		samples[i] = int16(v * int16Scale)
	}
	return samples, nil
}

// persist writes the {uuid}.wav / {uuid}.json pair. Nothing is rolled back
// on failure; lifecycle management of the outputs directory is external.
func (e *Engine) persist(
	audioID string,
	samples []int16,
	sampleRate int,
	params GenerateParams,
	generationSeconds float64,
) (*Result, error) {
	if err := os.MkdirAll(e.outputsDir, outputsDirPerm); err != nil {
		return nil, fmt.Errorf("create outputs dir: %w", err)
	}

	wavPath := filepath.Join(e.outputsDir, audioID+".wav")
	jsonPath := filepath.Join(e.outputsDir, audioID+".json")

	wavFile, err := os.Create(wavPath)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}
	if err := WriteWAV(wavFile, sampleRate, samples); err != nil {
		wavFile.Close()
		return nil, err
	}
	if err := wavFile.Close(); err != nil {
		return nil, fmt.Errorf("close wav file: %w", err)
	}

	meta := Metadata{
		AudioID:              audioID,
		ModelID:              e.modelID,
		Device:               e.device,
		DurationSecRequested: params.DurationSec,
		UsedPrompt:           params.Prompt,
		Temperature:          params.Temperature,
		TopK:                 params.TopK,
		Seed:                 params.Seed,
		SampleRate:           sampleRate,
		GenerationSeconds:    generationSeconds,
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(jsonPath, metaJSON, metaFilePerm); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return &Result{
		AudioID:     audioID,
		WavPath:     wavPath,
		JSONPath:    jsonPath,
		SampleRate:  sampleRate,
		UsedPrompt:  params.Prompt,
		DurationSec: params.DurationSec,
	}, nil
}
