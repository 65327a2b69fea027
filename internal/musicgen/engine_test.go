package musicgen

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibzlabs/vibz-api/internal/apperr"
)

// fakeRunner stands in for the inference runner sidecar.
type fakeRunner struct {
	t *testing.T

	samples    []float32
	channels   int
	sampleRate int

	failLoad bool
	failGen  bool

	loadCalls int
	genCalls  int
	lastGen   GenerateRequest
}

func (f *fakeRunner) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loadPath, func(w http.ResponseWriter, r *http.Request) {
		f.loadCalls++
		if f.failLoad {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "weights download failed"})
			return
		}
		json.NewEncoder(w).Encode(LoadResponse{
			ModelID:    "facebook/musicgen-small",
			Device:     "cpu",
			SampleRate: f.sampleRate,
		})
	})
	mux.HandleFunc(generatePath, func(w http.ResponseWriter, r *http.Request) {
		f.genCalls++
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastGen))
		if f.failGen {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "CUDA out of memory"})
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Audio:      encodeFloat32(f.samples),
			Channels:   f.channels,
			SampleRate: f.sampleRate,
		})
	})
	return mux
}

func encodeFloat32(samples []float32) string {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func newTestEngine(t *testing.T, fake *fakeRunner) *Engine {
	t.Helper()
	fake.t = t
	if fake.channels == 0 {
		fake.channels = 1
	}
	if fake.sampleRate == 0 {
		fake.sampleRate = 32000
	}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	return NewEngine(NewRunner(server.URL), "facebook/musicgen-small", t.TempDir())
}

func TestEngine_RejectsOutOfRangeDurationWithoutInference(t *testing.T) {
	fake := &fakeRunner{samples: []float32{0.1}}
	engine := newTestEngine(t, fake)

	for _, duration := range []int{0, -1, 61} {
		_, err := engine.Generate(context.Background(), GenerateParams{
			Prompt:      "calm piano",
			DurationSec: duration,
			Temperature: 1.0,
			TopK:        250,
		})
		require.Error(t, err)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	}
	assert.Zero(t, fake.loadCalls, "validation failures must not touch the runner")
	assert.Zero(t, fake.genCalls)
}

func TestEngine_GeneratePersistsArtifactPair(t *testing.T) {
	fake := &fakeRunner{samples: []float32{0.0, 0.5, -0.5}}
	engine := newTestEngine(t, fake)

	seed := int64(42)
	result, err := engine.Generate(context.Background(), GenerateParams{
		Prompt:      "calm piano at sunset",
		DurationSec: 20,
		Temperature: 0.8,
		TopK:        100,
		Seed:        &seed,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AudioID)
	assert.Equal(t, 32000, result.SampleRate)
	assert.Equal(t, "calm piano at sunset", result.UsedPrompt)

	// token mapping and per-call parameters reach the runner
	assert.Equal(t, 20*tokensPerSecond, fake.lastGen.MaxNewTokens)
	assert.Equal(t, 0.8, fake.lastGen.Temperature)
	assert.Equal(t, 100, fake.lastGen.TopK)
	require.NotNil(t, fake.lastGen.Seed)
	assert.Equal(t, int64(42), *fake.lastGen.Seed)

	// both artifacts exist under the same id
	wavFile, err := os.Open(result.WavPath)
	require.NoError(t, err)
	defer wavFile.Close()
	header, err := ReadWAVHeader(wavFile)
	require.NoError(t, err)
	assert.Equal(t, 32000, header.SampleRate)
	assert.Equal(t, len(fake.samples)*2, header.DataSize)

	metaJSON, err := os.ReadFile(result.JSONPath)
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(metaJSON, &meta))
	assert.Equal(t, result.AudioID, meta.AudioID)
	assert.Equal(t, "facebook/musicgen-small", meta.ModelID)
	assert.Equal(t, "cpu", meta.Device)
	assert.Equal(t, 20, meta.DurationSecRequested)
	assert.Equal(t, 32000, meta.SampleRate)
	require.NotNil(t, meta.Seed)
	assert.Equal(t, int64(42), *meta.Seed)

	assert.Equal(t, filepath.Dir(result.WavPath), filepath.Dir(result.JSONPath))
}

func TestEngine_LoadsModelOnce(t *testing.T) {
	fake := &fakeRunner{samples: []float32{0.1}}
	engine := newTestEngine(t, fake)

	params := GenerateParams{Prompt: "p", DurationSec: 20, Temperature: 1.0, TopK: 250}
	_, err := engine.Generate(context.Background(), params)
	require.NoError(t, err)
	_, err = engine.Generate(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.loadCalls)
	assert.Equal(t, 2, fake.genCalls)
}

func TestEngine_LoadFailureIsRetriedNextRequest(t *testing.T) {
	fake := &fakeRunner{samples: []float32{0.1}, failLoad: true}
	engine := newTestEngine(t, fake)

	params := GenerateParams{Prompt: "p", DurationSec: 20, Temperature: 1.0, TopK: 250}
	_, err := engine.Generate(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "weights download failed")

	fake.failLoad = false
	_, err = engine.Generate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.loadCalls)
}

func TestEngine_InferenceFailureSurfacesAsUpstream(t *testing.T) {
	fake := &fakeRunner{samples: []float32{0.1}, failGen: true}
	engine := newTestEngine(t, fake)

	_, err := engine.Generate(context.Background(), GenerateParams{
		Prompt: "p", DurationSec: 20, Temperature: 1.0, TopK: 250,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestDecodeWaveform_ClipsNeverWraps(t *testing.T) {
	samples, err := decodeWaveform(encodeFloat32([]float32{2.0, -3.0, 0.5, 1.0, -1.0}), 1)
	require.NoError(t, err)

	assert.Equal(t, int16(32767), samples[0], "over-range clips to max")
	assert.Equal(t, int16(-32767), samples[1], "under-range clips to min")
	assert.Equal(t, int16(16383), samples[2])
	assert.Equal(t, int16(32767), samples[3])
	assert.Equal(t, int16(-32767), samples[4])
}

func TestDecodeWaveform_SelectsFirstChannel(t *testing.T) {
	// channel-major: first half is channel 0, second half channel 1
	samples, err := decodeWaveform(encodeFloat32([]float32{0.25, 0.5, -0.25, -0.5}), 2)
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, int16(8191), samples[0])
	assert.Equal(t, int16(16383), samples[1])
}

func TestDecodeWaveform_RejectsMisalignedPayload(t *testing.T) {
	_, err := decodeWaveform(base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), 1)
	assert.Error(t, err)
}
