package openweather

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

	"github.com/kowalskibot/assistant/internal/domain/assistant"
)

// Client fetches current conditions from an OpenWeatherMap-compatible endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	units      string
	language   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a weather client.
func NewClient(endpoint, apiKey, units, language string, logger *slog.Logger) *Client {
	log := logger.With("component", "weather.openweather")
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   apiKey,
		units:    units,
		language: language,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "openweather",
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

// Weather returns the current reading for a location. An unknown location
// reports found=false without an error.
func (c *Client) Weather(ctx context.Context, location string) (assistant.WeatherReading, bool, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, location)
	})
	if err != nil {
		return assistant.WeatherReading{}, false, err
	}
	reading, ok := result.(assistant.WeatherReading)
	if !ok {
		return assistant.WeatherReading{}, false, nil
	}
	return reading, true, nil
}

func (c *Client) fetch(ctx context.Context, location string) (any, error) {
	endpoint := fmt.Sprintf("%s?q=%s&units=%s&lang=%s&appid=%s",
		c.endpoint, url.QueryEscape(location), url.QueryEscape(c.units), url.QueryEscape(c.language), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	if len(raw.Weather) == 0 {
		return nil, nil
	}

	return assistant.WeatherReading{
		ConditionCode:      raw.Weather[0].ID,
		Description:        raw.Weather[0].Description,
		TemperatureCelsius: raw.Main.Temp,
		LocationName:       raw.Name,
	}, nil
}

type apiResponse struct {
	Weather []conditionEntry `json:"weather"`
	Main    struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Name string `json:"name"`
}

type conditionEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}
