package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kowalskibot/assistant/pkg/metrics"
)

// Service routes one classified intent per turn to the matching answer
// provider and condenses the raw result into a single speakable reply.
type Service interface {
	Route(ctx context.Context, intent Intent) Reply
	Popular(ctx context.Context, limit int) ([]TrendingQuery, error)
}

// JokeProvider returns one joke, empty when none is available.
type JokeProvider interface {
	Joke(ctx context.Context) (string, error)
}

// SearchProvider returns the raw snippet for a query, empty when nothing matched.
type SearchProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// WeatherProvider returns the current reading for a location.
type WeatherProvider interface {
	Weather(ctx context.Context, location string) (WeatherReading, bool, error)
}

// Store caches normalized answers and tracks popular queries.
type Store interface {
	GetAnswer(ctx context.Context, canonical string) (string, bool, error)
	SaveAnswer(ctx context.Context, canonical, answer string, ttl time.Duration) error
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}

type handlerFunc func(ctx context.Context, intent Intent) string

type service struct {
	cfg         Config
	jokes       JokeProvider
	search      SearchProvider
	weather     WeatherProvider
	store       Store
	clock       *Clock
	normalizer  *Normalizer
	pluralCodes map[int]bool
	turns       *metrics.TurnCounter
	logger      *slog.Logger
	handlers    map[string]handlerFunc
}

// NewService wires up the intent router.
func NewService(
	cfg Config,
	jokes JokeProvider,
	search SearchProvider,
	weather WeatherProvider,
	store Store,
	turns *metrics.TurnCounter,
	logger *slog.Logger,
) (Service, error) {
	clock, err := NewClock(cfg)
	if err != nil {
		return nil, err
	}
	pluralCodes := make(map[int]bool, len(cfg.PluralConditionCodes))
	for _, code := range cfg.PluralConditionCodes {
		pluralCodes[code] = true
	}
	s := &service{
		cfg:         cfg,
		jokes:       jokes,
		search:      search,
		weather:     weather,
		store:       store,
		clock:       clock,
		normalizer:  NewNormalizer(cfg.BoilerplateLabels),
		pluralCodes: pluralCodes,
		turns:       turns,
		logger:      logger.With("component", "assistant.service"),
	}
	s.handlers = map[string]handlerFunc{
		IntentTime:    s.handleTime,
		IntentDate:    s.handleDate,
		IntentJoke:    s.handleJoke,
		IntentSearch:  s.handleSearch,
		IntentWeather: s.handleWeather,
	}
	return s, nil
}

// Route produces the reply for one turn. It never returns an empty message
// and never surfaces a provider failure to the caller.
func (s *service) Route(ctx context.Context, intent Intent) Reply {
	s.turns.Record(intent.Name)

	handler, known := s.handlers[intent.Name]
	if !known || intent.Confidence < s.cfg.MinimumScore {
		s.logger.Info("turn not understood", "intent", intent.Name, "confidence", intent.Confidence)
		return s.reply(s.notUnderstood(intent))
	}

	message := handler(ctx, intent)
	if strings.TrimSpace(message) == "" {
		message = s.notUnderstood(intent)
	}
	return s.reply(message)
}

// Popular lists the most requested search queries.
func (s *service) Popular(ctx context.Context, limit int) ([]TrendingQuery, error) {
	return s.store.TopQueries(ctx, limit)
}

func (s *service) handleTime(context.Context, Intent) string {
	return s.clock.TimeMessage()
}

func (s *service) handleDate(_ context.Context, intent Intent) string {
	return s.clock.DateMessage(intent.Entity(EntityDay))
}

func (s *service) handleJoke(ctx context.Context, _ Intent) string {
	ctx, cancel := s.providerContext(ctx)
	defer cancel()

	joke, err := s.jokes.Joke(ctx)
	if err != nil {
		s.logger.Warn("joke provider failed", "error", err)
		joke = ""
	}
	if strings.TrimSpace(joke) == "" {
		return s.cfg.Messages.JokeEmpty
	}
	return joke
}

func (s *service) handleSearch(ctx context.Context, intent Intent) string {
	query := intent.Entity(EntityName)
	if query == "" {
		return s.notUnderstood(intent)
	}

	canonical := canonicalizeQuery(query)
	if err := s.store.IncrementQuery(ctx, canonical, query); err != nil {
		s.logger.Debug("trending increment failed", "error", err)
	}
	if answer, ok, err := s.store.GetAnswer(ctx, canonical); err == nil && ok {
		s.logger.Debug("search answer served from cache", "query", canonical)
		return answer
	} else if err != nil {
		s.logger.Warn("answer cache lookup failed", "error", err)
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	snippet, err := s.search.Search(pctx, query)
	if err != nil {
		s.logger.Warn("search provider failed", "query", query, "error", err)
		snippet = ""
	}

	answer := s.normalizer.Normalize(snippet)
	if answer == "" {
		return fmt.Sprintf(s.cfg.Messages.NotFound, query)
	}
	if err := s.store.SaveAnswer(ctx, canonical, answer, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("answer cache save failed", "error", err)
	}
	return answer
}

func (s *service) handleWeather(ctx context.Context, intent Intent) string {
	location := intent.Entity(EntityLocation)
	if location == "" {
		return s.notUnderstood(intent)
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	reading, found, err := s.weather.Weather(pctx, location)
	if err != nil {
		s.logger.Warn("weather provider failed", "location", location, "error", err)
		found = false
	}
	if !found {
		return fmt.Sprintf(s.cfg.Messages.NotFound, location)
	}
	return FormatWeather(s.cfg.Messages, s.pluralCodes, reading, location)
}

func (s *service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.ProviderTimeout)
}

func (s *service) notUnderstood(intent Intent) string {
	return fmt.Sprintf(s.cfg.Messages.NotUnderstood, intent.Utterance)
}

func (s *service) reply(text string) Reply {
	return Reply{Text: text, Speak: text}
}
