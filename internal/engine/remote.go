package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
)

// RemoteEngine dispatches classification across an HTTP execution
// boundary: POST /classify with the text, receive an assessment. An
// unreachable boundary surfaces ErrUnavailable immediately; there is no
// retry loop inside the engine.
type RemoteEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteEngine creates an engine talking to a classifier service
func NewRemoteEngine(baseURL string, timeout time.Duration) *RemoteEngine {
	return &RemoteEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the engine name
func (e *RemoteEngine) Name() string {
	return "remote"
}

// Confidence attributed to the remote classifier's assessments
func (e *RemoteEngine) Confidence() float64 {
	return 0.9
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify posts the text to the remote boundary and decodes the
// returned assessment
func (e *RemoteEngine) Classify(ctx context.Context, text string) (*model.RiskAssessment, error) {
	payload, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var assessment model.RiskAssessment
	if err := json.Unmarshal(body, &assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &assessment, nil
}

// Available probes the boundary's health endpoint
func (e *RemoteEngine) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
