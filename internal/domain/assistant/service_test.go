package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kowalskibot/assistant/pkg/metrics"
)

type stubJokes struct {
	joke  string
	err   error
	calls int
}

func (s *stubJokes) Joke(context.Context) (string, error) {
	s.calls++
	return s.joke, s.err
}

type stubSearch struct {
	snippet string
	err     error
	calls   int
}

func (s *stubSearch) Search(_ context.Context, query string) (string, error) {
	s.calls++
	return s.snippet, s.err
}

type stubWeather struct {
	reading WeatherReading
	found   bool
	err     error
	calls   int
}

func (s *stubWeather) Weather(_ context.Context, location string) (WeatherReading, bool, error) {
	s.calls++
	return s.reading, s.found, s.err
}

type stubStore struct {
	mu       sync.Mutex
	answers  map[string]string
	trending map[string]int64
	displays map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		answers:  make(map[string]string),
		trending: make(map[string]int64),
		displays: make(map[string]string),
	}
}

func (s *stubStore) GetAnswer(_ context.Context, canonical string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[canonical]
	return answer, ok, nil
}

func (s *stubStore) SaveAnswer(_ context.Context, canonical, answer string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[canonical] = answer
	return nil
}

func (s *stubStore) IncrementQuery(_ context.Context, canonical, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, ok := s.displays[canonical]; !ok {
		s.displays[canonical] = display
	}
	return nil
}

func (s *stubStore) TopQueries(_ context.Context, limit int) ([]TrendingQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		out = append(out, TrendingQuery{Query: s.displays[canonical], Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type serviceFixture struct {
	svc     Service
	jokes   *stubJokes
	search  *stubSearch
	weather *stubWeather
	store   *stubStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		jokes:   &stubJokes{},
		search:  &stubSearch{},
		weather: &stubWeather{},
		store:   newStubStore(),
	}
	svc, err := NewService(Config{
		Culture:              "it_IT",
		TimeZone:             "Europe/Rome",
		TimeFormat:           "15:04",
		DateFormat:           "Monday 2 January 2006",
		MinimumScore:         0.5,
		TomorrowWord:         "domani",
		BoilerplateLabels:    []string{"Biografia.", "Descrizione."},
		PluralConditionCodes: []int{801, 802, 803, 804},
		ProviderTimeout:      time.Second,
		CacheTTL:             time.Hour,
		Messages:             testMessages,
	}, f.jokes, f.search, f.weather, f.store, metrics.NewTurnCounter(), newTestLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoute_LowConfidence(t *testing.T) {
	f := newServiceFixture(t)

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "bla bla",
		Name:       IntentSearch,
		Confidence: 0.2,
		Entities:   map[string]string{EntityName: "Dante"},
	})

	require.Equal(t, "Mi dispiace, non ho capito di cosa hai bisogno. Hai detto 'bla bla'.", reply.Text)
	require.Equal(t, reply.Text, reply.Speak)
	require.Zero(t, f.search.calls)
}

func TestRoute_NoneIntent(t *testing.T) {
	f := newServiceFixture(t)

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "xyz",
		Name:       IntentNone,
		Confidence: 1.0,
	})

	require.Contains(t, reply.Text, "non ho capito")
	require.Contains(t, reply.Text, "xyz")
}

func TestRoute_SearchMissingEntity(t *testing.T) {
	f := newServiceFixture(t)

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "cerca",
		Name:       IntentSearch,
		Confidence: 0.9,
		Entities:   map[string]string{},
	})

	require.Contains(t, reply.Text, "non ho capito")
	require.Zero(t, f.search.calls, "provider must not be invoked without a query")
}

func TestRoute_SearchNormalizesSnippet(t *testing.T) {
	f := newServiceFixture(t)
	f.search.snippet = "Biografia. Mario Rossi (1900-1980) è stato un pittore. Altro testo."

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "chi era Mario Rossi",
		Name:       IntentSearch,
		Confidence: 0.9,
		Entities:   map[string]string{EntityName: "Mario Rossi"},
	})

	require.Equal(t, "Mario Rossi è stato un pittore.", reply.Text)
	require.Equal(t, 1, f.search.calls)

	// The second identical turn is served from the cache.
	reply = f.svc.Route(context.Background(), Intent{
		Utterance:  "chi era Mario Rossi",
		Name:       IntentSearch,
		Confidence: 0.9,
		Entities:   map[string]string{EntityName: "Mario Rossi"},
	})
	require.Equal(t, "Mario Rossi è stato un pittore.", reply.Text)
	require.Equal(t, 1, f.search.calls)
}

func TestRoute_SearchEmptyResult(t *testing.T) {
	f := newServiceFixture(t)
	f.search.snippet = ""

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "cerca qualcosa",
		Name:       IntentSearch,
		Confidence: 0.9,
		Entities:   map[string]string{EntityName: "qualcosa di ignoto"},
	})

	require.Equal(t, "Mi dispiace, non ho trovato nessuna informazione utile su 'qualcosa di ignoto'.", reply.Text)
}

func TestRoute_SearchProviderError(t *testing.T) {
	f := newServiceFixture(t)
	f.search.err = errors.New("boom")

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "cerca Dante",
		Name:       IntentSearch,
		Confidence: 0.9,
		Entities:   map[string]string{EntityName: "Dante"},
	})

	require.Contains(t, reply.Text, "non ho trovato")
	require.Contains(t, reply.Text, "Dante")
}

func TestRoute_WeatherMissingEntity(t *testing.T) {
	f := newServiceFixture(t)

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "che tempo fa",
		Name:       IntentWeather,
		Confidence: 0.9,
	})

	require.Contains(t, reply.Text, "non ho capito")
	require.Zero(t, f.weather.calls)
}

func TestRoute_WeatherNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.weather.found = false

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "che tempo fa a Torino",
		Name:       IntentWeather,
		Confidence: 0.9,
		Entities:   map[string]string{EntityLocation: "Torino"},
	})

	require.Equal(t, "Mi dispiace, non ho trovato nessuna informazione utile su 'Torino'.", reply.Text)
}

func TestRoute_WeatherFound(t *testing.T) {
	f := newServiceFixture(t)
	f.weather.found = true
	f.weather.reading = WeatherReading{ConditionCode: 802, Description: "nubi sparse", TemperatureCelsius: 19.6}

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "che tempo fa a Roma",
		Name:       IntentWeather,
		Confidence: 0.9,
		Entities:   map[string]string{EntityLocation: "Roma"},
	})

	require.Equal(t, "A Roma oggi ci sono nubi sparse, con una temperatura di 20 gradi.", reply.Text)
}

func TestRoute_JokeEmptyFallsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.jokes.err = errors.New("db down")

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "raccontami una barzelletta",
		Name:       IntentJoke,
		Confidence: 0.9,
	})

	require.Equal(t, testMessages.JokeEmpty, reply.Text)
}

func TestRoute_Joke(t *testing.T) {
	f := newServiceFixture(t)
	f.jokes.joke = "Perché il libro di matematica è triste? Perché ha troppi problemi."

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "raccontami una barzelletta",
		Name:       IntentJoke,
		Confidence: 0.9,
	})

	require.Equal(t, f.jokes.joke, reply.Text)
}

func TestRoute_Time(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.(*service).clock.now = func() time.Time {
		return time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC)
	}

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "che ore sono",
		Name:       IntentTime,
		Confidence: 0.9,
	})

	require.Equal(t, "Sono le ore 14:30.", reply.Text)
}

func TestRoute_Date(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.(*service).clock.now = func() time.Time {
		return time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC)
	}

	reply := f.svc.Route(context.Background(), Intent{
		Utterance:  "che giorno è domani",
		Name:       IntentDate,
		Confidence: 0.9,
		Entities:   map[string]string{EntityDay: "domani"},
	})

	require.Equal(t, "Domani sarà martedì 2 luglio 2024.", reply.Text)
}

func TestPopular(t *testing.T) {
	f := newServiceFixture(t)
	f.search.snippet = "Dante Alighieri è stato un poeta."

	for i := 0; i < 3; i++ {
		f.svc.Route(context.Background(), Intent{
			Utterance:  "chi era Dante",
			Name:       IntentSearch,
			Confidence: 0.9,
			Entities:   map[string]string{EntityName: "Dante"},
		})
	}

	top, err := f.svc.Popular(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "Dante", top[0].Query)
	require.EqualValues(t, 3, top[0].Count)
}
