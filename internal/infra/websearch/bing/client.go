package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// Client queries a web search endpoint and extracts the best snippet.
type Client struct {
	endpoint        string
	key             string
	market          string
	preferredSource string
	httpClient      *http.Client
	breaker         *gobreaker.CircuitBreaker
}

// NewClient builds a search client. preferredSource is the title marker of the
// result to favor (typically an encyclopedia name); when no title matches,
// the first result wins.
func NewClient(endpoint, key, market, preferredSource string, logger *slog.Logger) *Client {
	log := logger.With("component", "websearch.bing")
	return &Client{
		endpoint:        strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		key:             key,
		market:          market,
		preferredSource: preferredSource,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "bing-search",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Search returns the raw snippet for a query, empty when nothing matched.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	snippet, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, query)
	})
	if err != nil {
		return "", err
	}
	return snippet.(string), nil
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s?q=%s&mkt=%s", c.endpoint, url.QueryEscape(query), url.QueryEscape(c.market))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("search request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	return c.bestSnippet(raw), nil
}

type apiResponse struct {
	WebPages struct {
		Value []webPage `json:"value"`
	} `json:"webPages"`
}

type webPage struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

func (c *Client) bestSnippet(raw apiResponse) string {
	results := raw.WebPages.Value
	if len(results) == 0 {
		return ""
	}
	if c.preferredSource != "" {
		for _, page := range results {
			if strings.Contains(page.Name, c.preferredSource) {
				return page.Snippet
			}
		}
	}
	return results[0].Snippet
}
