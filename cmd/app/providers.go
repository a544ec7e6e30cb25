package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
	"github.com/kowalskibot/assistant/internal/domain/auth"
	"github.com/kowalskibot/assistant/internal/domain/speech"
	"github.com/kowalskibot/assistant/internal/infra/answerstore"
	"github.com/kowalskibot/assistant/internal/infra/config"
	"github.com/kowalskibot/assistant/internal/infra/jokerepo"
	"github.com/kowalskibot/assistant/internal/infra/recognizer/luis"
	"github.com/kowalskibot/assistant/internal/infra/speech/azuretts"
	"github.com/kowalskibot/assistant/internal/infra/speechstore"
	"github.com/kowalskibot/assistant/internal/infra/weather/openweather"
	"github.com/kowalskibot/assistant/internal/infra/websearch/bing"
	httpiface "github.com/kowalskibot/assistant/internal/interface/http"
	"github.com/kowalskibot/assistant/pkg/metrics"
)

func provideAssistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		Culture:              cfg.Assistant.Culture,
		TimeZone:             cfg.Assistant.TimeZone,
		TimeFormat:           cfg.Assistant.TimeFormat,
		DateFormat:           cfg.Assistant.DateFormat,
		MinimumScore:         cfg.Assistant.MinimumScore,
		TomorrowWord:         cfg.Assistant.TomorrowWord,
		BoilerplateLabels:    cfg.Assistant.BoilerplateLabels,
		PluralConditionCodes: cfg.Assistant.PluralConditionCodes,
		ProviderTimeout:      cfg.Assistant.ProviderTimeout,
		CacheTTL:             cfg.Assistant.CacheTTL,
		Messages: assistant.Messages{
			NotUnderstood:   cfg.Assistant.Messages.NotUnderstood,
			NotFound:        cfg.Assistant.Messages.NotFound,
			JokeEmpty:       cfg.Assistant.Messages.JokeEmpty,
			Time:            cfg.Assistant.Messages.Time,
			TodayDate:       cfg.Assistant.Messages.TodayDate,
			TomorrowDate:    cfg.Assistant.Messages.TomorrowDate,
			WeatherSingular: cfg.Assistant.Messages.WeatherSingular,
			WeatherPlural:   cfg.Assistant.Messages.WeatherPlural,
		},
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	channels := make([]auth.Channel, 0, len(cfg.Auth.Channels))
	for _, channel := range cfg.Auth.Channels {
		channels = append(channels, auth.Channel{
			ID:         channel.ID,
			SecretHash: channel.SecretHash,
		})
	}
	return auth.Config{
		Enabled:  cfg.Auth.Enabled,
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
		Channels: channels,
	}
}

func provideRecognizer(cfg *config.Config) httpiface.Recognizer {
	return luis.NewClient(cfg.Recognizer.Endpoint, cfg.Recognizer.AppID, cfg.Recognizer.Key)
}

func provideSearchProvider(cfg *config.Config, logger *slog.Logger) assistant.SearchProvider {
	return bing.NewClient(cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.Market, cfg.Search.PreferredSource, logger)
}

func provideWeatherProvider(cfg *config.Config, logger *slog.Logger) assistant.WeatherProvider {
	return openweather.NewClient(cfg.Weather.Endpoint, cfg.Weather.APIKey, cfg.Weather.Units, cfg.Weather.Language, logger)
}

func provideJokeProvider(cfg *config.Config, logger *slog.Logger) assistant.JokeProvider {
	fallback := jokerepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Jokes.Postgres.DSN)
	if dsn == "" {
		logger.Info("jokes postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Jokes.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Jokes.Postgres.MaxConns
	}
	if cfg.Jokes.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Jokes.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("jokes postgres repository enabled")
	return jokerepo.NewPostgresRepository(pool)
}

func provideStore(cfg *config.Config, logger *slog.Logger) assistant.Store {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return answerstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return answerstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("answer valkey store enabled", "addr", cfg.Cache.Addr)
			return answerstore.NewValkeyStore(client, "kowalski")
		}
	}
	return answerstore.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideSynthesizer(cfg *config.Config) speech.Synthesizer {
	tokenEndpoint := fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", cfg.Speech.Region)
	ttsEndpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Speech.Region)
	return azuretts.NewClient(tokenEndpoint, ttsEndpoint, cfg.Speech.SubscriptionKey, cfg.Speech.VoiceName, cfg.Speech.Language)
}

func provideSpeechStore(cfg *config.Config, logger *slog.Logger) speech.BlobStore {
	storage := cfg.Speech.Storage
	if !storage.Enabled {
		return speechstore.NewMemoryStore()
	}
	store, err := speechstore.NewMinioStore(storage.Endpoint, storage.AccessKey, storage.SecretKey, storage.Bucket, storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize audio storage, falling back to memory store", "error", err)
		return speechstore.NewMemoryStore()
	}
	logger.Info("audio object storage enabled", "bucket", storage.Bucket)
	return store
}

func provideSpeechService(cfg *config.Config, synth speech.Synthesizer, store speech.BlobStore, logger *slog.Logger) speech.Service {
	return speech.NewService(synth, store, cfg.Speech.VoiceName, logger)
}

func provideHandler(
	recognizer httpiface.Recognizer,
	assistantSvc assistant.Service,
	speechSvc speech.Service,
	authSvc auth.Service,
	turns *metrics.TurnCounter,
	cfg *config.Config,
	logger *slog.Logger,
) *httpiface.Handler {
	return httpiface.NewHandler(recognizer, assistantSvc, speechSvc, authSvc, turns, cfg.Speech.SpeechURI, logger)
}
