package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/vecdemo/embeddings"
	"github.com/viant/vecdemo/metrics"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	embedEndpoint      = "/api/embed"
	defaultHTTPTimeout = 60 * time.Second
	// DefaultModel is the Ollama build of all-MiniLM-L6-v2 (384 dimensions).
	DefaultModel = "all-minilm"
	// DefaultKeepAlive keeps the model resident between calls of one run.
	DefaultKeepAlive = "10m"
	providerName     = "ollama"
)

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithKeepAlive sets how long Ollama keeps the model loaded after a request.
func WithKeepAlive(keepAlive string) ClientOption {
	return func(c *Client) {
		if keepAlive != "" {
			c.KeepAlive = keepAlive
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

type Client struct {
	BaseURL    string
	Model      string
	KeepAlive  string
	HTTPClient *http.Client
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	Error           string      `json:"error"`
}

func NewClient(model string, opts ...ClientOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		BaseURL:    defaultBaseURL,
		Model:      model,
		KeepAlive:  DefaultKeepAlive,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Embed(ctx context.Context, texts []string) (vectors [][]float32, tokens int, err error) {
	if c == nil {
		return nil, 0, fmt.Errorf("ollama client is nil")
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	start := time.Now()
	defer func() { metrics.ObserveEmbed(providerName, len(texts), start, err) }()

	reqBody, err := json.Marshal(embedRequest{Model: c.Model, Input: texts, KeepAlive: c.KeepAlive})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embedEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("ollama API error (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out embedResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, 0, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, 0, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, out.PromptEvalCount, nil
}

// Embedder bridges the client to the embeddings.Embedder interface.
type Embedder struct {
	C *Client
}

// New returns an Embedder for the given model and base URL.
func New(model, baseURL string, opts ...ClientOption) *Embedder {
	opts = append([]ClientOption{WithBaseURL(baseURL)}, opts...)
	return &Embedder{C: NewClient(model, opts...)}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.C == nil {
		return nil, fmt.Errorf("ollama embedder not configured")
	}
	vecs, _, err := e.C.Embed(ctx, docs)
	return vecs, err
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Query(ctx, e, text)
}
