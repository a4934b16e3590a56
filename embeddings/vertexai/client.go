package vertexai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/vecdemo/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultLocation   = "us-central1"
	defaultModel      = "text-embedding-004"
	defaultHTTPTO     = 30 * time.Second
	defaultScopeCloud = "https://www.googleapis.com/auth/cloud-platform"
	providerName      = "vertexai"
	// taskDocument matches how stored records are embedded.
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

type ClientOption func(*Client)

func WithLocation(location string) ClientOption {
	return func(c *Client) {
		if location != "" {
			c.Location = location
		}
	}
}

func WithScopes(scopes ...string) ClientOption {
	return func(c *Client) {
		c.Scopes = append(c.Scopes, scopes...)
	}
}

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithDimensions truncates embeddings to the given size (outputDimensionality).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		if dim > 0 {
			c.Dimensions = dim
		}
	}
}

// WithBaseURL replaces the regional aiplatform host, e.g. for a proxy.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.BaseURL = strings.TrimRight(baseURL, "/") }
}

// WithTokenSource sets the token source used instead of application default credentials.
func WithTokenSource(ts oauth2.TokenSource) ClientOption {
	return func(c *Client) { c.tokenSource = ts }
}

type Client struct {
	BaseURL    string
	ProjectID  string
	Location   string
	Model      string
	Scopes     []string
	Dimensions int

	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

type predictRequest struct {
	Instances  []predictInstance  `json:"instances"`
	Parameters *predictParameters `json:"parameters,omitempty"`
}

type predictInstance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type,omitempty"`
}

type predictParameters struct {
	OutputDimensionality int `json:"outputDimensionality,omitempty"`
}

type predictResponse struct {
	Predictions []predictEmbedding `json:"predictions"`
}

type predictEmbedding struct {
	Embeddings predictEmbeddingValues `json:"embeddings"`
}

type predictEmbeddingValues struct {
	Values []float32 `json:"values"`
}

func NewClient(ctx context.Context, projectID, model string, opts ...ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertexai project id is required")
	}
	c := &Client{
		ProjectID:  projectID,
		Location:   defaultLocation,
		Model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTO},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{defaultScopeCloud}
	}
	if c.tokenSource == nil {
		ts, err := google.DefaultTokenSource(ctx, c.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("vertexai token source: %w", err)
		}
		c.tokenSource = ts
	}
	return c, nil
}

func (c *Client) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.Location)
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		base, c.ProjectID, c.Location, c.Model)
}

// Embed embeds texts with the document task type.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	return c.embed(ctx, texts, taskDocument)
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) (vecs [][]float32, tokens int, err error) {
	if c == nil {
		return nil, 0, fmt.Errorf("vertexai client is nil")
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	start := time.Now()
	defer func() { metrics.ObserveEmbed(providerName, len(texts), start, err) }()
	instances := make([]predictInstance, 0, len(texts))
	for _, t := range texts {
		instances = append(instances, predictInstance{Content: t, TaskType: taskType})
	}
	request := predictRequest{Instances: instances}
	if c.Dimensions > 0 {
		request.Parameters = &predictParameters{OutputDimensionality: c.Dimensions}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("vertexai token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("vertexai API error: %s", strings.TrimSpace(string(body)))
	}
	var out predictResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	vecs = make([][]float32, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		vecs = append(vecs, p.Embeddings.Values)
	}
	return vecs, 0, nil
}
