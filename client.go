package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client interface {
	GetHealth(ctx context.Context) (*Report, error)
	GetServiceHealth(ctx context.Context, serviceName string) (*Report, error)
	GetLiveness(ctx context.Context) (*LivenessResponse, error)
	GetReadiness(ctx context.Context) (*ReadinessResponse, error)
	GetStatus(ctx context.Context) (*StatusResponse, error)
	GetMetrics(ctx context.Context) (string, error)
}

type ClientOption func(*client)

type client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, opts ...ClientOption) (Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &client{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout on a copy of the current HTTP client,
// so a client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

func (c *client) doRequest(ctx context.Context, path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// getJSON decodes the body of a GET on path into a T. Probe endpoints answer
// 503 with a valid body, so allowUnavailable accepts that status too.
func getJSON[T any](ctx context.Context, c *client, path string, allowUnavailable bool) (*T, error) {
	resp, err := c.doRequest(ctx, path, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ok := resp.StatusCode == http.StatusOK ||
		(allowUnavailable && resp.StatusCode == http.StatusServiceUnavailable)
	if !ok {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &v, nil
}

func (c *client) GetHealth(ctx context.Context) (*Report, error) {
	return getJSON[Report](ctx, c, "/health", true)
}

func (c *client) GetServiceHealth(ctx context.Context, serviceName string) (*Report, error) {
	q := url.Values{}
	q.Set(ServiceQueryParam, serviceName)
	return getJSON[Report](ctx, c, "/health?"+q.Encode(), true)
}

func (c *client) GetLiveness(ctx context.Context) (*LivenessResponse, error) {
	return getJSON[LivenessResponse](ctx, c, "/health/live", true)
}

func (c *client) GetReadiness(ctx context.Context) (*ReadinessResponse, error) {
	return getJSON[ReadinessResponse](ctx, c, "/health/ready", true)
}

func (c *client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	return getJSON[StatusResponse](ctx, c, "/status", false)
}

func (c *client) GetMetrics(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, "/metrics", "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	return string(body), nil
}
