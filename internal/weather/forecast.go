// Package weather fetches a localized farm forecast through the model with
// search grounding. It never fails: errors become a placeholder record.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/perception"
	"kisandoctor/internal/types"
)

// Mode labels weather calls in model traces.
const Mode = "WEATHER"

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// ErrNoLocation means a forecast was requested with no place and no fix.
var ErrNoLocation = errors.New("location has neither query nor coordinates")

// Location is either a free-text place or a coordinate pair. Query wins.
type Location struct {
	Lat   *float64
	Lng   *float64
	Query string
}

// Coordinates builds a Location from a GPS fix.
func Coordinates(lat, lng float64) Location {
	return Location{Lat: &lat, Lng: &lng}
}

// Place builds a Location from a place name.
func Place(query string) Location {
	return Location{Query: query}
}

// String renders the location the way it is written into the prompt.
func (l Location) String() string {
	if q := strings.TrimSpace(l.Query); q != "" {
		return q
	}
	return formatCoord(l.Lat) + ", " + formatCoord(l.Lng)
}

func (l Location) valid() bool {
	return strings.TrimSpace(l.Query) != "" || (l.Lat != nil && l.Lng != nil)
}

func formatCoord(f *float64) string {
	if f == nil {
		return "undefined"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Forecaster asks the model for current conditions and a short forecast.
type Forecaster struct {
	client perception.ModelClient
}

// NewForecaster creates a forecaster over client.
func NewForecaster(client perception.ModelClient) *Forecaster {
	return &Forecaster{client: client}
}

// Forecast returns the weather for loc with text in language. Any failure
// yields FallbackData.
func (f *Forecaster) Forecast(ctx context.Context, loc Location, language string) types.WeatherData {
	data, err := f.fetch(ctx, loc, language)
	if err != nil {
		logging.WeatherWarn("forecast for %q failed: %v", loc.String(), err)
		return FallbackData()
	}
	return *data
}

func (f *Forecaster) fetch(ctx context.Context, loc Location, language string) (*types.WeatherData, error) {
	if !loc.valid() {
		return nil, ErrNoLocation
	}
	lang := types.LanguageName(language)

	result, err := f.client.GenerateJSON(ctx, perception.GenerateRequest{
		Mode:         Mode,
		Prompt:       Prompt(loc, lang),
		Schema:       perception.WeatherSchema(),
		GoogleSearch: true,
	})
	if err != nil {
		return nil, err
	}

	var data types.WeatherData
	if err := json.Unmarshal([]byte(perception.StripCodeFence(result.Text)), &data); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	data.MapURL = MapURL(data.Location)
	logging.WeatherDebug("forecast for %q: %s, %s", data.Location, data.CurrentTemp, data.Condition)
	return &data, nil
}

// Prompt is the user prompt for a forecast.
func Prompt(loc Location, language string) string {
	return fmt.Sprintf("Weather for %s in %s. Return JSON.", loc.String(), language)
}

// MapURL links to a maps search for location.
func MapURL(location string) string {
	return mapsSearchURL + strings.ReplaceAll(url.QueryEscape(location), "+", "%20")
}

// FallbackData is the placeholder shown when no forecast is available.
func FallbackData() types.WeatherData {
	return types.WeatherData{
		Location:      "Unknown",
		CurrentTemp:   "--",
		Condition:     "Error",
		Humidity:      "--",
		WindSpeed:     "--",
		Precipitation: "--",
		Forecast:      []types.ForecastDay{},
		AgriAdvice:    "Check connection.",
		MapURL:        "",
	}
}
