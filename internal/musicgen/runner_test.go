package musicgen

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_ExtractsStructuredErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "CUDA out of memory"}`))
	}))
	defer server.Close()

	runner := NewRunner(server.URL)
	_, err := runner.Load(t.Context(), "facebook/musicgen-small")
	require.Error(t, err)

	var runnerErr *RunnerError
	require.ErrorAs(t, err, &runnerErr)
	assert.Equal(t, http.StatusInternalServerError, runnerErr.StatusCode)
	assert.Equal(t, "CUDA out of memory", runnerErr.Message)
}

func TestRunner_FallsBackToRawErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	runner := NewRunner(server.URL)
	_, err := runner.Generate(t.Context(), &GenerateRequest{Prompt: "p", MaxNewTokens: 50})
	require.Error(t, err)

	var runnerErr *RunnerError
	require.ErrorAs(t, err, &runnerErr)
	assert.Equal(t, "upstream timeout", runnerErr.Message)
}

func TestRunner_SendsPerCallParameters(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/generations", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"audio": "", "channels": 1, "sample_rate": 32000}`))
	}))
	defer server.Close()

	seed := int64(42)
	runner := NewRunner(server.URL)
	resp, err := runner.Generate(t.Context(), &GenerateRequest{
		Prompt:       "ambient pads",
		MaxNewTokens: 1500,
		Temperature:  0.7,
		TopK:         100,
		Seed:         &seed,
	})
	require.NoError(t, err)
	assert.Equal(t, 32000, resp.SampleRate)

	assert.Equal(t, "ambient pads", got.Prompt)
	assert.Equal(t, 1500, got.MaxNewTokens)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 100, got.TopK)
	require.NotNil(t, got.Seed)
	assert.Equal(t, seed, *got.Seed)
}
