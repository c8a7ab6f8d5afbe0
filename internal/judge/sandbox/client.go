package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeduelhq/duel-platform/internal/judge"
)

// Client talks to the code-execution sandbox over HTTP. The sandbox owns
// isolation and resource limits; this client only ships code and inputs.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a sandbox client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type executeRequest struct {
	Language  string `json:"language"`
	Code      string `json:"code"`
	Stdin     string `json:"stdin"`
	TimeoutMS int64  `json:"timeout_ms"`
}

type executeResponse struct {
	Stdout       string `json:"stdout"`
	Stderr       string `json:"stderr"`
	CompileError string `json:"compile_error"`
	TimedOut     bool   `json:"timed_out"`
	ExitCode     int    `json:"exit_code"`
}

// Run executes candidate code against one input under the given timeout.
func (c *Client) Run(ctx context.Context, spec judge.RunSpec) (judge.RunOutput, error) {
	payload, err := json.Marshal(executeRequest{
		Language:  spec.Language,
		Code:      spec.Code,
		Stdin:     spec.Stdin,
		TimeoutMS: spec.Timeout.Milliseconds(),
	})
	if err != nil {
		return judge.RunOutput{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/execute", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return judge.RunOutput{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return judge.RunOutput{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return judge.RunOutput{}, fmt.Errorf("sandbox non-200: %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return judge.RunOutput{}, err
	}

	return judge.RunOutput{
		Stdout:       out.Stdout,
		Stderr:       out.Stderr,
		CompileError: out.CompileError,
		TimedOut:     out.TimedOut,
		ExitCode:     out.ExitCode,
	}, nil
}
