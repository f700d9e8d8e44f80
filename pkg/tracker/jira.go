package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	searchPath = "/rest/api/2/search"

	// Update timestamps are quoted to minute precision in queries, matching
	// the tracker's query grammar.
	queryTimeLayout = "2006-01-02 15:04"
)

// JiraClient implements Client against a Jira-compatible REST API.
type JiraClient struct {
	baseURL    string
	credential string
	httpClient *http.Client
	logger     zerolog.Logger
}

// JiraConfig holds Jira client configuration.
type JiraConfig struct {
	BaseURL    string
	Credential string
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// NewJiraClient creates a new Jira tracker client.
func NewJiraClient(cfg JiraConfig) *JiraClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &JiraClient{
		baseURL:    cfg.BaseURL,
		credential: cfg.Credential,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger.With().Str("component", "tracker").Logger(),
	}
}

type searchResponse struct {
	Issues []Record `json:"issues"`
	Total  int      `json:"total"`
}

// Count returns the total number of records matching a query without fetching
// any of them.
func (c *JiraClient) Count(ctx context.Context, query string) (int, error) {
	resp, err := c.search(ctx, query, 0, 0)
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// Search returns one page of records matching a query.
func (c *JiraClient) Search(ctx context.Context, query string, offset, pageSize int) (*SearchResult, error) {
	resp, err := c.search(ctx, query, offset, pageSize)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Items: resp.Issues, Total: resp.Total}, nil
}

// GetUpdatedSince returns records of a project updated since the given time.
func (c *JiraClient) GetUpdatedSince(ctx context.Context, projectKey string, since time.Time, offset, pageSize int) (*SearchResult, error) {
	query := fmt.Sprintf("project = %q AND updated >= %q ORDER BY updated ASC",
		projectKey, since.Format(queryTimeLayout))
	return c.Search(ctx, query, offset, pageSize)
}

func (c *JiraClient) search(ctx context.Context, query string, offset, pageSize int) (*searchResponse, error) {
	u, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("invalid tracker base URL: %w", err)
	}

	q := u.Query()
	q.Set("jql", query)
	q.Set("startAt", strconv.Itoa(offset))
	q.Set("maxResults", strconv.Itoa(pageSize))
	q.Set("fields", "*all")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ThrottledError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tracker returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tracker response: %w", err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("offset", offset).
		Int("returned", len(result.Issues)).
		Int("total", result.Total).
		Msg("Tracker page fetched")

	return &result, nil
}

// parseRetryAfter parses a Retry-After header value in seconds. Unparseable
// values yield zero, leaving backoff to the caller's default.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
