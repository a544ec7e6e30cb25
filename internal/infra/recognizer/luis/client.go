package luis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
)

// Client classifies utterances against a hosted LUIS v2 application.
type Client struct {
	endpoint   string
	appID      string
	key        string
	httpClient *http.Client
}

// NewClient builds a recognizer client.
func NewClient(endpoint, appID, key string) *Client {
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		appID:    appID,
		key:      key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Classify resolves an utterance into a named intent with entities. Callers
// treat any error as the "none" intent with zero confidence.
func (c *Client) Classify(ctx context.Context, utterance string) (assistant.Intent, error) {
	endpoint := fmt.Sprintf("%s/luis/v2.0/apps/%s?subscription-key=%s&q=%s",
		c.endpoint, url.PathEscape(c.appID), url.QueryEscape(c.key), url.QueryEscape(utterance))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("build recognizer request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return assistant.Intent{}, fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return assistant.Intent{}, fmt.Errorf("recognizer request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return assistant.Intent{}, fmt.Errorf("decode recognizer response: %w", err)
	}

	return mapIntent(utterance, raw), nil
}

type apiResponse struct {
	Query            string      `json:"query"`
	TopScoringIntent scoredIntent `json:"topScoringIntent"`
	Entities         []apiEntity  `json:"entities"`
}

type scoredIntent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

type apiEntity struct {
	Entity string `json:"entity"`
	Type   string `json:"type"`
}

func mapIntent(utterance string, raw apiResponse) assistant.Intent {
	name := strings.ToLower(strings.TrimSpace(raw.TopScoringIntent.Intent))
	if name == "" {
		name = assistant.IntentNone
	}

	entities := make(map[string]string, len(raw.Entities))
	for _, entity := range raw.Entities {
		slot := strings.ToLower(strings.TrimSpace(entity.Type))
		if slot == "" {
			continue
		}
		if _, taken := entities[slot]; taken {
			continue
		}
		entities[slot] = entity.Entity
	}

	return assistant.Intent{
		Utterance:  utterance,
		Name:       name,
		Confidence: raw.TopScoringIntent.Score,
		Entities:   entities,
	}
}
