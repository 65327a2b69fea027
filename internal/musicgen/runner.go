package musicgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	loadPath     = "/v1/models/load"
	generatePath = "/v1/audio/generations"
)

// Runner is the HTTP client for the MusicGen inference runner sidecar.
// The runner owns the model weights and the accelerator; this client only
// speaks its JSON API.
type Runner struct {
	baseURL    string
	httpClient *http.Client
}

// RunnerOption configures the runner client.
type RunnerOption func(*Runner)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *Runner) {
		r.httpClient = client
	}
}

// NewRunner creates a client for the runner at baseURL.
func NewRunner(baseURL string, opts ...RunnerOption) *Runner {
	r := &Runner{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunnerError is an error response from the runner API.
type RunnerError struct {
	StatusCode int
	Message    string
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("runner error %d: %s", e.StatusCode, e.Message)
}

// LoadRequest asks the runner to load a model from the hub.
type LoadRequest struct {
	ModelID string `json:"model_id"`
}

// LoadResponse describes the loaded model instance.
type LoadResponse struct {
	ModelID    string `json:"model_id"`
	Device     string `json:"device"`
	SampleRate int    `json:"sample_rate"`
}

// GenerateRequest carries one inference call. All sampling parameters are
// per-call; the runner holds no request state between calls.
type GenerateRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopK         int     `json:"top_k"`
	Seed         *int64  `json:"seed,omitempty"`
}

// GenerateResponse carries the raw waveform. Audio is base64-encoded
// little-endian float32 samples, channel-major (all samples of channel 0,
// then channel 1, ...).
type GenerateResponse struct {
	Audio      string `json:"audio"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
}

// Load instructs the runner to load the given model, fetching weights from
// the hub on first use. Loading an already-loaded model is a no-op on the
// runner side.
func (r *Runner) Load(ctx context.Context, modelID string) (*LoadResponse, error) {
	var resp LoadResponse
	if err := r.post(ctx, loadPath, &LoadRequest{ModelID: modelID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Generate runs one inference call and returns the raw waveform.
func (r *Runner) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := r.post(ctx, generatePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Runner) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("runner request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read runner response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return &RunnerError{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode runner response: %w", err)
	}
	return nil
}

// errorMessage extracts {"detail": "..."} when the runner returns a
// structured error, falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}
