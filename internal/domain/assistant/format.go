package assistant

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/kowalskibot/assistant/pkg/util"
)

// FormatWeather renders a provider reading into the final sentence. Cloud
// family condition codes take the plural template ("ci sono nuvole"), every
// other condition the singular one. The temperature is rounded half away
// from zero, and the label is the location the caller asked for, not the
// provider's canonical name.
func FormatWeather(m Messages, pluralCodes map[int]bool, reading WeatherReading, location string) string {
	template := m.WeatherSingular
	if pluralCodes[reading.ConditionCode] {
		template = m.WeatherPlural
	}
	degrees := int(math.Round(reading.TemperatureCelsius))
	return fmt.Sprintf(template, location, reading.Description, degrees)
}

// Clock renders localized time and date sentences for a fixed target zone.
type Clock struct {
	loc          *time.Location
	locale       monday.Locale
	timeFormat   string
	dateFormat   string
	tomorrowWord string
	messages     Messages
	now          func() time.Time
}

// NewClock builds a clock from the assistant configuration.
func NewClock(cfg Config) (*Clock, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	return &Clock{
		loc:          loc,
		locale:       monday.Locale(cfg.Culture),
		timeFormat:   cfg.TimeFormat,
		dateFormat:   cfg.DateFormat,
		tomorrowWord: cfg.TomorrowWord,
		messages:     cfg.Messages,
		now:          util.NowUTC,
	}, nil
}

// TimeMessage reports the current time in the target zone.
func (c *Clock) TimeMessage() string {
	local := c.now().In(c.loc)
	return fmt.Sprintf(c.messages.Time, local.Format(c.timeFormat))
}

// DateMessage reports today's date, or tomorrow's when the day word matches
// the configured locale word for "tomorrow" (case-insensitive).
func (c *Clock) DateMessage(dayWord string) string {
	local := c.now().In(c.loc)
	template := c.messages.TodayDate
	if strings.EqualFold(strings.TrimSpace(dayWord), c.tomorrowWord) {
		local = local.AddDate(0, 0, 1)
		template = c.messages.TomorrowDate
	}
	return fmt.Sprintf(template, monday.Format(local, c.dateFormat, c.locale))
}
