// Package llm is the boundary adapter for the external text-completion
// service. One attempt per call, a bounded wait, and a typed failure
// taxonomy; no retries.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Gateway sends composed prompts to the completion service.
type Gateway interface {
	// Complete sends one prompt and returns the raw completion text. A
	// call that exceeds the gateway timeout returns Failure(Timeout); the
	// in-flight request is abandoned, not cancelled.
	Complete(ctx context.Context, text string, params GenOptions) (string, error)

	// Healthy reports whether the backend answers its liveness endpoint.
	Healthy(ctx context.Context) bool
}

// GenOptions mirrors the generation options of the backend's generate
// endpoint.
type GenOptions struct {
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	MaxTokens     int
	ContextWindow int
	Stop          []string
}

type ollamaGateway struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

// NewOllamaGateway creates a gateway against an Ollama-compatible backend.
func NewOllamaGateway(baseURL, model string, timeout time.Duration) Gateway {
	return &ollamaGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: timeout,
		// the HTTP client gets headroom beyond the gateway timeout so
		// abandoned calls can still drain and be discarded
		client: &http.Client{Timeout: timeout * 2},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	NumPredict    int      `json:"num_predict"`
	NumCtx        int      `json:"num_ctx"`
	Stop          []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (g *ollamaGateway) Complete(ctx context.Context, text string, params GenOptions) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	// buffered so a late worker can deliver and exit after the caller
	// has moved on
	done := make(chan outcome, 1)

	go func() {
		resp, err := g.generate(ctx, text, params)
		done <- outcome{text: resp, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.text, out.err
	case <-timer.C:
		return "", &Failure{Reason: FailureTimeout, Message: fmt.Sprintf("no completion within %s", g.timeout)}
	case <-ctx.Done():
		reason := FailureTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			reason = FailureOther
		}
		return "", &Failure{Reason: reason, Message: ctx.Err().Error()}
	}
}

func (g *ollamaGateway) generate(ctx context.Context, text string, params GenOptions) (string, error) {
	body := generateRequest{
		Model:  g.model,
		Prompt: text,
		Stream: false,
		Options: generateOptions{
			Temperature:   params.Temperature,
			TopP:          params.TopP,
			RepeatPenalty: params.RepeatPenalty,
			NumPredict:    params.MaxTokens,
			NumCtx:        params.ContextWindow,
			Stop:          params.Stop,
		},
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", &Failure{Reason: FailureOther, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &Failure{Reason: FailureOther, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Failure{Reason: FailureBadStatus, Status: resp.StatusCode, Message: string(snippet)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Failure{Reason: FailureOther, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", &Failure{Reason: FailureEmptyResponse, Message: "backend returned empty response"}
	}
	return out.Response, nil
}

func (g *ollamaGateway) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func classifyTransportError(err error) *Failure {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Failure{Reason: FailureConnectionRefused, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Reason: FailureTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Reason: FailureTimeout, Message: err.Error()}
	}
	return &Failure{Reason: FailureOther, Message: err.Error()}
}
