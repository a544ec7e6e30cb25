package assistant

import "time"

// Config carries the locale-dependent routing and formatting rules.
// Every user-visible literal lives here so the assistant can be retargeted
// to another language without touching code.
type Config struct {
	Culture              string
	TimeZone             string
	TimeFormat           string
	DateFormat           string
	MinimumScore         float64
	TomorrowWord         string
	BoilerplateLabels    []string
	PluralConditionCodes []int
	ProviderTimeout      time.Duration
	CacheTTL             time.Duration
	Messages             Messages
}

// Messages holds the sentence templates for every reply the assistant can produce.
type Messages struct {
	NotUnderstood   string
	NotFound        string
	JokeEmpty       string
	Time            string
	TodayDate       string
	TomorrowDate    string
	WeatherSingular string
	WeatherPlural   string
}
