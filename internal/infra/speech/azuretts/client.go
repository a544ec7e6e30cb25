package azuretts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kowalskibot/assistant/internal/domain/speech"
)

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	outputFormatHeader    = "X-Microsoft-OutputFormat"
	outputFormat          = "audio-16khz-128kbitrate-mono-mp3"

	// Issued tokens are valid for 10 minutes; refresh a bit earlier.
	tokenLifetime = 9 * time.Minute
)

// Client synthesizes speech through the Azure Cognitive Services TTS REST API.
type Client struct {
	tokenEndpoint string
	ttsEndpoint   string
	key           string
	voice         string
	language      string
	httpClient    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a TTS client.
func NewClient(tokenEndpoint, ttsEndpoint, key, voice, language string) *Client {
	return &Client{
		tokenEndpoint: strings.TrimSpace(tokenEndpoint),
		ttsEndpoint:   strings.TrimSpace(ttsEndpoint),
		key:           key,
		voice:         voice,
		language:      language,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Synthesize renders the text to an MP3 clip.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := c.buildSSML(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ttsEndpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set(outputFormatHeader, outputFormat)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("synthesis request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return audio, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("token request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	c.token = strings.TrimSpace(string(token))
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.token, nil
}

func (c *Client) buildSSML(text string) string {
	escaped := xmlEscape(text)
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		c.language, c.language, c.voice, escaped)
}

func xmlEscape(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return replacer.Replace(text)
}

var _ speech.Synthesizer = (*Client)(nil)
