package assist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultAPIVersion is the Generative Language API version requests go to.
const DefaultAPIVersion = "v1beta"

// ErrNoAPIKey is returned by Complete when the client has no key.
var ErrNoAPIKey = errors.New("assistant API key not configured")

// GeminiConfig configures a GeminiClient. An empty Endpoint uses the SDK's
// default Generative Language base URL.
type GeminiConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// GeminiClient is a Completer backed by the Gemini generateContent call.
// The SDK client is created on first use.
type GeminiClient struct {
	cfg GeminiConfig

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a client, filling unset config with defaults.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiClient{cfg: cfg}
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: c.cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.cfg.Endpoint,
			APIVersion: DefaultAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// Complete sends prompt as a single user turn and returns the text of the
// first candidate.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.cfg.Model, err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%s: no candidates in response", c.cfg.Model)
	}
	return resp.Text(), nil
}
