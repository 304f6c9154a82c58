package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is an error response from NewsAPI.
type APIError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsapi error: %s (code: %s, http status: %d)", e.Message, e.Code, e.StatusCode)
}

type searchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// Client talks to the NewsAPI v2 REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a NewsAPI client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search runs q and returns the articles in the order NewsAPI ranked them.
func (c *Client) Search(ctx context.Context, q Query) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	req, err := c.buildRequest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Status: "error", Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     body.Status,
			Code:       body.Code,
			Message:    body.Message,
		}
	}
	return body.Articles, nil
}

func (c *Client) buildRequest(ctx context.Context, q Query) (*http.Request, error) {
	path := "/v2/everything"
	params := url.Values{}
	if q.Keywords != "" {
		params.Set("q", q.Keywords)
	}
	if q.Headlines() {
		path = "/v2/top-headlines"
		if q.Country != "" {
			params.Set("country", q.Country)
		}
		if q.Category != "" {
			params.Set("category", q.Category)
		}
	} else {
		if q.Language != "" {
			params.Set("language", q.Language)
		}
		if q.SortBy != "" {
			params.Set("sortBy", q.SortBy)
		}
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
