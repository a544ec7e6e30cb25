//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/kowalskibot/assistant/internal/bootstrap"
	"github.com/kowalskibot/assistant/internal/domain/assistant"
	"github.com/kowalskibot/assistant/internal/domain/auth"
	"github.com/kowalskibot/assistant/internal/infra/config"
	httpiface "github.com/kowalskibot/assistant/internal/interface/http"
	"github.com/kowalskibot/assistant/pkg/logger"
	"github.com/kowalskibot/assistant/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewTurnCounter,
		provideAssistantConfig,
		provideAuthConfig,
		provideRecognizer,
		provideSearchProvider,
		provideWeatherProvider,
		provideJokeProvider,
		provideStore,
		provideSynthesizer,
		provideSpeechStore,
		provideSpeechService,
		assistant.NewService,
		auth.NewService,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
