package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Search     SearchConfig     `yaml:"search"`
	Weather    WeatherConfig    `yaml:"weather"`
	Jokes      JokesConfig      `yaml:"jokes"`
	Cache      CacheConfig      `yaml:"cache"`
	Speech     SpeechConfig     `yaml:"speech"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig secures the assistant endpoints for registered channels.
type AuthConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Secret   string          `yaml:"secret"`
	TokenTTL time.Duration   `yaml:"tokenTtl"`
	Channels []ChannelConfig `yaml:"channels"`
}

// ChannelConfig registers one caller allowed to obtain tokens.
type ChannelConfig struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secretHash"`
}

// AssistantConfig holds the locale-dependent routing and formatting rules.
type AssistantConfig struct {
	Culture              string         `yaml:"culture"`
	TimeZone             string         `yaml:"timeZone"`
	TimeFormat           string         `yaml:"timeFormat"`
	DateFormat           string         `yaml:"dateFormat"`
	MinimumScore         float64        `yaml:"minimumScore"`
	TomorrowWord         string         `yaml:"tomorrowWord"`
	BoilerplateLabels    []string       `yaml:"boilerplateLabels"`
	PluralConditionCodes []int          `yaml:"pluralConditionCodes"`
	ProviderTimeout      time.Duration  `yaml:"providerTimeout"`
	CacheTTL             time.Duration  `yaml:"cacheTtl"`
	Messages             MessagesConfig `yaml:"messages"`
}

// MessagesConfig externalizes every user-visible sentence template.
type MessagesConfig struct {
	NotUnderstood   string `yaml:"notUnderstood"`
	NotFound        string `yaml:"notFound"`
	JokeEmpty       string `yaml:"jokeEmpty"`
	Time            string `yaml:"time"`
	TodayDate       string `yaml:"todayDate"`
	TomorrowDate    string `yaml:"tomorrowDate"`
	WeatherSingular string `yaml:"weatherSingular"`
	WeatherPlural   string `yaml:"weatherPlural"`
}

// RecognizerConfig points at the hosted intent classification endpoint.
type RecognizerConfig struct {
	Endpoint string `yaml:"endpoint"`
	AppID    string `yaml:"appId"`
	Key      string `yaml:"key"`
}

// SearchConfig drives the web search provider.
type SearchConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Key             string `yaml:"key"`
	Market          string `yaml:"market"`
	PreferredSource string `yaml:"preferredSource"`
}

// WeatherConfig drives the current weather provider.
type WeatherConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Units    string `yaml:"units"`
	Language string `yaml:"language"`
}

// JokesConfig contains DSN and pooling settings for the joke repository.
type JokesConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig contains connection information for the answer cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SpeechConfig drives text-to-speech synthesis and audio storage.
type SpeechConfig struct {
	Region          string              `yaml:"region"`
	SubscriptionKey string              `yaml:"subscriptionKey"`
	VoiceName       string              `yaml:"voiceName"`
	Language        string              `yaml:"language"`
	SpeechURI       string              `yaml:"speechUri"`
	Storage         SpeechStorageConfig `yaml:"storage"`
}

// SpeechStorageConfig contains the S3-compatible audio bucket settings.
type SpeechStorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("ASSISTANT_CULTURE"); v != "" {
		cfg.Assistant.Culture = v
	}
	if v := os.Getenv("ASSISTANT_TIME_ZONE"); v != "" {
		cfg.Assistant.TimeZone = v
	}
	if v := os.Getenv("ASSISTANT_MINIMUM_SCORE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Assistant.MinimumScore = parsed
		}
	}
	if v := os.Getenv("ASSISTANT_PROVIDER_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Assistant.ProviderTimeout = parsed
		}
	}
	if v := os.Getenv("ASSISTANT_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Assistant.CacheTTL = parsed
		}
	}
	if v := os.Getenv("RECOGNIZER_ENDPOINT"); v != "" {
		cfg.Recognizer.Endpoint = v
	}
	if v := os.Getenv("RECOGNIZER_APP_ID"); v != "" {
		cfg.Recognizer.AppID = v
	}
	if v := os.Getenv("RECOGNIZER_KEY"); v != "" {
		cfg.Recognizer.Key = v
	}
	if v := os.Getenv("SEARCH_ENDPOINT"); v != "" {
		cfg.Search.Endpoint = v
	}
	if v := os.Getenv("SEARCH_KEY"); v != "" {
		cfg.Search.Key = v
	}
	if v := os.Getenv("SEARCH_MARKET"); v != "" {
		cfg.Search.Market = v
	}
	if v := os.Getenv("WEATHER_ENDPOINT"); v != "" {
		cfg.Weather.Endpoint = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("JOKES_POSTGRES_DSN"); v != "" {
		cfg.Jokes.Postgres.DSN = v
	}
	if v := os.Getenv("JOKES_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Jokes.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SPEECH_REGION"); v != "" {
		cfg.Speech.Region = v
	}
	if v := os.Getenv("SPEECH_SUBSCRIPTION_KEY"); v != "" {
		cfg.Speech.SubscriptionKey = v
	}
	if v := os.Getenv("SPEECH_URI"); v != "" {
		cfg.Speech.SpeechURI = v
	}
	if v := os.Getenv("SPEECH_STORAGE_ENDPOINT"); v != "" {
		cfg.Speech.Storage.Endpoint = v
		cfg.Speech.Storage.Enabled = true
	}
	if v := os.Getenv("SPEECH_STORAGE_ACCESS_KEY"); v != "" {
		cfg.Speech.Storage.AccessKey = v
	}
	if v := os.Getenv("SPEECH_STORAGE_SECRET_KEY"); v != "" {
		cfg.Speech.Storage.SecretKey = v
	}
	if v := os.Getenv("SPEECH_STORAGE_BUCKET"); v != "" {
		cfg.Speech.Storage.Bucket = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/assistant/messages",
					"/api/v1/speech",
				},
			},
		},
		Auth: AuthConfig{
			Enabled:  false,
			TokenTTL: time.Hour,
		},
		Assistant: AssistantConfig{
			Culture:              "it_IT",
			TimeZone:             "Europe/Rome",
			TimeFormat:           "15:04",
			DateFormat:           "Monday 2 January 2006",
			MinimumScore:         0.5,
			TomorrowWord:         "domani",
			BoilerplateLabels:    []string{"Biografia.", "Descrizione."},
			PluralConditionCodes: []int{801, 802, 803, 804},
			ProviderTimeout:      8 * time.Second,
			CacheTTL:             6 * time.Hour,
			Messages: MessagesConfig{
				NotUnderstood:   "Mi dispiace, non ho capito di cosa hai bisogno. Hai detto '%s'.",
				NotFound:        "Mi dispiace, non ho trovato nessuna informazione utile su '%s'.",
				JokeEmpty:       "Mi dispiace, al momento non mi viene in mente nessuna barzelletta.",
				Time:            "Sono le ore %s.",
				TodayDate:       "Oggi è %s.",
				TomorrowDate:    "Domani sarà %s.",
				WeatherSingular: "A %s oggi c'è %s, con una temperatura di %d gradi.",
				WeatherPlural:   "A %s oggi ci sono %s, con una temperatura di %d gradi.",
			},
		},
		Search: SearchConfig{
			Endpoint:        "https://api.bing.microsoft.com/v7.0/search",
			Market:          "it-IT",
			PreferredSource: "Wikipedia",
		},
		Weather: WeatherConfig{
			Endpoint: "https://api.openweathermap.org/data/2.5/weather",
			Units:    "metric",
			Language: "it",
		},
		Jokes: JokesConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Speech: SpeechConfig{
			VoiceName: "it-IT-ElsaNeural",
			Language:  "it-IT",
			SpeechURI: "/api/v1/speech?text=%s",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Assistant.TimeZone == "" {
		return errors.New("assistant.timeZone cannot be empty")
	}
	if c.Assistant.TimeFormat == "" || c.Assistant.DateFormat == "" {
		return errors.New("assistant time and date formats cannot be empty")
	}
	if c.Assistant.MinimumScore < 0 || c.Assistant.MinimumScore > 1 {
		return errors.New("assistant.minimumScore must be within [0,1]")
	}
	if c.Assistant.TomorrowWord == "" {
		return errors.New("assistant.tomorrowWord cannot be empty")
	}
	if c.Assistant.ProviderTimeout <= 0 {
		return errors.New("assistant.providerTimeout must be positive")
	}
	if c.Assistant.CacheTTL < 0 {
		return errors.New("assistant.cacheTtl cannot be negative")
	}
	m := c.Assistant.Messages
	if m.NotUnderstood == "" || m.NotFound == "" || m.JokeEmpty == "" ||
		m.Time == "" || m.TodayDate == "" || m.TomorrowDate == "" ||
		m.WeatherSingular == "" || m.WeatherPlural == "" {
		return errors.New("assistant.messages templates cannot be empty")
	}
	if c.Auth.Enabled {
		if strings.TrimSpace(c.Auth.Secret) == "" {
			return errors.New("auth.secret cannot be empty when auth is enabled")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("auth.tokenTtl must be positive when auth is enabled")
		}
		if len(c.Auth.Channels) == 0 {
			return errors.New("auth.channels cannot be empty when auth is enabled")
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when the answer cache is enabled")
	}
	if c.Speech.Storage.Enabled {
		if c.Speech.Storage.Endpoint == "" || c.Speech.Storage.Bucket == "" {
			return errors.New("speech.storage endpoint and bucket cannot be empty when enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
