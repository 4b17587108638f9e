package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipcast/internal/domain"
	"clipcast/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("veo: api key is required")

// Operation is the normalized state of a remote long-running render.
// Finished with an empty AssetURI means the upstream render failed.
type Operation struct {
	Finished      bool
	AssetURI      string
	FailureDetail string
}

// Gateway creates and queries long-running render operations on the external
// video-generation service. It holds no local state; polling cadence is the
// caller's responsibility.
type Gateway interface {
	Create(ctx context.Context, prompt string, params domain.RenderParams) (string, error)
	Query(ctx context.Context, operationRef string) (*Operation, error)
}

// Options configures the Veo client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Veo long-running-operation API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type createRequest struct {
	Prompt createPrompt `json:"prompt"`
	Config createConfig `json:"config"`
}

type createPrompt struct {
	Text string `json:"text"`
}

type createConfig struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type createResponse struct {
	Name string `json:"name"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		Video struct {
			URI string `json:"uri"`
		} `json:"video"`
	} `json:"response"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "models/veo-3.1"
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Create submits a render request and returns the opaque operation name the
// service assigned to it.
func (c *Client) Create(ctx context.Context, prompt string, params domain.RenderParams) (string, error) {
	payload := createRequest{
		Prompt: createPrompt{Text: prompt},
		Config: createConfig{
			AspectRatio:     params.AspectRatio,
			DurationSeconds: params.DurationSeconds,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("veo: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateVideo?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("veo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, true); err != nil {
		return "", err
	}

	var decoded createResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode create response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if decoded.Name == "" {
		return "", fmt.Errorf("%w: create response missing operation name", domain.ErrUpstreamUnavailable)
	}

	if c.logger != nil {
		c.logger.Debug().Str("operation", decoded.Name).Msg("veo operation created")
	}
	return decoded.Name, nil
}

// Query reads the current state of a long-running operation.
func (c *Client) Query(ctx context.Context, operationRef string) (*Operation, error) {
	if strings.TrimSpace(operationRef) == "" {
		return nil, fmt.Errorf("%w: operation ref is required", domain.ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, strings.TrimLeft(operationRef, "/"), c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("veo: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, false); err != nil {
		return nil, err
	}

	var decoded operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode operation: %v", domain.ErrUpstreamUnavailable, err)
	}

	op := &Operation{Finished: decoded.Done}
	if decoded.Done {
		op.AssetURI = decoded.Response.Video.URI
		op.FailureDetail = decoded.Error.Message
		if op.AssetURI == "" && op.FailureDetail == "" {
			op.FailureDetail = "render finished without an asset"
		}
	}
	return op, nil
}

// checkStatus drains error responses and maps them onto the domain taxonomy.
// Parameter rejections on create are the caller's fault; everything else is
// an upstream problem.
func (c *Client) checkStatus(resp *http.Response, create bool) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(snippet))
	if c.logger != nil {
		c.logger.Warn().Int("status", resp.StatusCode).Str("body", detail).Msg("veo request failed")
	}
	if create && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: veo rejected request (status %d)", domain.ErrInvalidRequest, resp.StatusCode)
	}
	return fmt.Errorf("%w: veo status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
}

var _ Gateway = (*Client)(nil)
