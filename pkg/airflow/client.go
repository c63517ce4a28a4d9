package airflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	healthPath   = "health"
	healthPathV3 = "api/v2/monitor/health"
)

var errBadBody = errors.New("failed to parse health response")

// Client talks to the Airflow web server health endpoint.
type Client struct {
	url    string
	client *http.Client
}

// HealthResponse is the document served by Airflow's health endpoint.
type HealthResponse struct {
	Metadatabase struct {
		Status string `json:"status"`
	} `json:"metadatabase"`
	Scheduler struct {
		Status                   string `json:"status"`
		LatestSchedulerHeartbeat string `json:"latest_scheduler_heartbeat"`
	} `json:"scheduler"`
}

// Healthy reports whether the metadatabase is reachable, which is the bar
// for the web UI to be usable.
func (h *HealthResponse) Healthy() bool {
	return strings.EqualFold(h.Metadatabase.Status, "healthy")
}

// NewClient creates a client for the web server at baseURL. A nil
// httpClient gets a default with a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "http://" + baseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{url: baseURL, client: httpClient}
}

func (c *Client) URL() string {
	return strings.TrimSuffix(c.url, "/")
}

// Health fetches the health document. Airflow 3 moved the endpoint and its
// api-server answers unknown paths with the UI page, so a 404 or a body that
// is not the health document on the classic path is retried once on the new
// one.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	health, status, err := c.getHealth(ctx, healthPath)
	if (err == nil && status == http.StatusNotFound) || errors.Is(err, errBadBody) {
		health, status, err = c.getHealth(ctx, healthPathV3)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", status, c.URL())
	}
	return health, nil
}

func (c *Client) getHealth(ctx context.Context, path string) (*HealthResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		return nil, resp.StatusCode, fmt.Errorf("%w: got %s from /%s", errBadBody, ct, path)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return &health, resp.StatusCode, nil
}
