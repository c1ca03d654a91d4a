package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kisandoctor/cmd/kisan/chat"
	"kisandoctor/internal/weather"
)

var (
	weatherLat  float64
	weatherLng  float64
	weatherJSON bool
)

// weatherCmd prints a localized forecast
var weatherCmd = &cobra.Command{
	Use:   "weather [place...]",
	Short: "Show the farm weather forecast for a place",
	Long: `Looks up current conditions and a short forecast with farming advice.

Examples:
  kisan weather Nashik
  kisan weather --lat 18.52 --lng 73.85 --lang mr`,
	RunE: runWeather,
}

func init() {
	weatherCmd.Flags().Float64Var(&weatherLat, "lat", 0, "Latitude")
	weatherCmd.Flags().Float64Var(&weatherLng, "lng", 0, "Longitude")
	weatherCmd.Flags().BoolVar(&weatherJSON, "json", false, "Print the forecast as JSON")
}

func runWeather(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var loc weather.Location
	switch {
	case len(args) > 0:
		loc = weather.Place(strings.Join(args, " "))
	case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng"):
		loc = weather.Coordinates(weatherLat, weatherLng)
	default:
		return fmt.Errorf("give a place or both --lat and --lng")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	data := a.forecaster.Forecast(ctx, loc, cfg.Session.Language)
	out := cmd.OutOrStdout()
	if weatherJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	fmt.Fprint(out, chat.RenderMarkdown(chat.NewRenderer(80), chat.FormatWeather(data)))
	return nil
}
