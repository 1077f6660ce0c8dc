package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"resume_filter/internal/model"
)

var ErrBackend = errors.New("scoring backend error")

const DefaultURL = "http://127.0.0.1:8765"

// RemoteLoader loads models on an inference server that exposes
// /v1/models/load and /v1/loss.
type RemoteLoader struct {
	baseURL string
	client  *http.Client
}

func NewRemoteLoader(baseURL string, timeout time.Duration) *RemoteLoader {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteLoader{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type loadRequest struct {
	Artifact string `json:"artifact"`
	Device   string `json:"device"`
}

type lossRequest struct {
	Model     string `json:"model"`
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

type lossResponse struct {
	Loss  *float64 `json:"loss"`
	Error string   `json:"error"`
}

func (l *RemoteLoader) Load(ctx context.Context, artifact string, device model.Device) (model.Backend, error) {
	var out struct {
		Error string `json:"error"`
	}
	if err := postJSON(ctx, l.client, l.baseURL+"/v1/models/load", loadRequest{Artifact: artifact, Device: string(device)}, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBackend, out.Error)
	}
	return &Remote{
		baseURL:  l.baseURL,
		artifact: artifact,
		client:   l.client,
	}, nil
}

// Remote scores text against one loaded artifact.
type Remote struct {
	baseURL  string
	artifact string
	client   *http.Client
}

func (r *Remote) Score(ctx context.Context, text string, maxLength int) (float64, error) {
	var out lossResponse
	req := lossRequest{Model: r.artifact, Text: text, MaxLength: maxLength}
	if err := postJSON(ctx, r.client, r.baseURL+"/v1/loss", req, &out); err != nil {
		return 0, err
	}
	if out.Error != "" {
		return 0, fmt.Errorf("%w: %s", ErrBackend, out.Error)
	}
	if out.Loss == nil {
		return 0, fmt.Errorf("%w: response missing loss", ErrBackend)
	}
	loss := *out.Loss
	if math.IsNaN(loss) || math.IsInf(loss, 0) || loss < 0 {
		return 0, fmt.Errorf("%w: invalid loss %v", ErrBackend, loss)
	}
	return loss, nil
}

// ConcurrentSafe is true: the server owns inference serialization.
func (r *Remote) ConcurrentSafe() bool { return true }

func postJSON(ctx context.Context, client *http.Client, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %w", ErrBackend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrBackend, err)
	}
	return nil
}
