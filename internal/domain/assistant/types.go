package assistant

import "strings"

// Intent names produced by the external recognizer.
const (
	IntentTime    = "time"
	IntentDate    = "date"
	IntentJoke    = "joke"
	IntentSearch  = "search"
	IntentWeather = "weather"
	IntentNone    = "none"
)

// Entity slot names the router reads.
const (
	EntityDay      = "day"
	EntityName     = "name"
	EntityLocation = "location"
)

// Intent is one classified utterance. It is created per turn and never mutated.
type Intent struct {
	Utterance  string            `json:"utterance"`
	Name       string            `json:"name"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Entity returns the trimmed value of a slot, empty when absent.
func (i Intent) Entity(slot string) string {
	return strings.TrimSpace(i.Entities[slot])
}

// WeatherReading is the structured payload returned by the weather provider.
type WeatherReading struct {
	ConditionCode      int
	Description        string
	TemperatureCelsius float64
	LocationName       string
}

// Reply is the final per-turn message handed to the transport.
// Speak equals Text unless a handler overrides it.
type Reply struct {
	Text  string `json:"text"`
	Speak string `json:"speak"`
}

// TrendingQuery reports how often a search query was asked.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
