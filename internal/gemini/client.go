package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// ErrMissingAPIKey is returned when a call is attempted without a configured
// Google API key. This is a configuration error, not an upstream failure.
var ErrMissingAPIKey = errors.New("gemini: API key not configured")

// Client calls the Gemini REST API. It is stateless and safe for concurrent
// use; a single instance serves both the main chat call and the title call.
type Client struct {
	apiKey       string
	defaultModel string
	visionModel  string
	baseURL      string
	httpClient   *http.Client
}

// NewClient creates a Gemini client with the given credential and model names.
func NewClient(apiKey, defaultModel, visionModel string) *Client {
	return &Client{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		visionModel:  visionModel,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// ResolveModel picks the model for a request. A caller-selected model wins
// over the default, but an image turn always forces the vision model since
// the default model is not guaranteed to accept image content.
func (c *Client) ResolveModel(requested string, hasImage bool) string {
	model := c.defaultModel
	if requested != "" {
		model = requested
	}
	if hasImage {
		model = c.visionModel
	}
	return model
}

// Stream opens a streamGenerateContent call and returns a single-pass delta
// stream. The HTTP exchange is established synchronously: a missing credential
// or a non-200 status fails here, before any delta is produced.
func (c *Client) Stream(ctx context.Context, modelID string, contents []models.GeminiContent, temperature float64) (Stream, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(models.GeminiRequest{
		Contents:         contents,
		GenerationConfig: &models.GeminiGenerationConfig{Temperature: temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, modelID, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s := newAPIStream()
	go s.consume(resp.Body)
	return s, nil
}
