package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalizer"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
)

const cliTimeout = 30 * time.Second

type locationFlags struct {
	city   string
	lat    float64
	lon    float64
	units  string
	output string
}

func (f *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "City name, e.g. \"London\" or \"London,GB\"")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude (requires --lon)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude (requires --lat)")
	cmd.Flags().StringVarP(&f.units, "units", "u", "", "Temperature unit: celsius or fahrenheit")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format (text, json)")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")
	cmd.MarkFlagsMutuallyExclusive("city", "lon")
}

func (f *locationFlags) query(cmd *cobra.Command) (models.LocationQuery, error) {
	if cmd.Flags().Changed("lat") {
		if f.lat < -90 || f.lat > 90 || f.lon < -180 || f.lon > 180 {
			return models.LocationQuery{}, fmt.Errorf("coordinates out of range: %g,%g", f.lat, f.lon)
		}
		lat, lon := f.lat, f.lon
		return models.LocationQuery{Lat: &lat, Lon: &lon}, nil
	}
	if strings.TrimSpace(f.city) == "" {
		return models.LocationQuery{}, fmt.Errorf("either --city or --lat/--lon is required")
	}
	return models.LocationQuery{City: strings.TrimSpace(f.city)}, nil
}

func (f *locationFlags) validateOutput() error {
	return validateOutput(f.output)
}

func validateOutput(output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}

func newCurrentCmd() *cobra.Command {
	var flags locationFlags
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show current weather for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query(cmd)
			if err != nil {
				return err
			}
			if err := flags.validateOutput(); err != nil {
				return err
			}

			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.close()

			unit, err := normalizer.ParseUnit(flags.units, rt.dashboard.DefaultUnit())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			reading, err := rt.dashboard.Current(ctx, q, unit)
			if err != nil {
				return userError(err)
			}

			if flags.output == "json" {
				return writeJSON(cmd.OutOrStdout(), reading)
			}
			printCurrent(cmd.OutOrStdout(), reading)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newForecastCmd() *cobra.Command {
	var flags locationFlags
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the 5 day forecast summary for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query(cmd)
			if err != nil {
				return err
			}
			if err := flags.validateOutput(); err != nil {
				return err
			}

			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.close()

			unit, err := normalizer.ParseUnit(flags.units, rt.dashboard.DefaultUnit())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			forecast, err := rt.dashboard.Forecast(ctx, q, unit)
			if err != nil {
				return userError(err)
			}

			if flags.output == "json" {
				return writeJSON(cmd.OutOrStdout(), forecast)
			}
			return printForecast(cmd.OutOrStdout(), forecast)
		},
	}
	flags.register(cmd)
	return cmd
}

func newGeocodeCmd() *cobra.Command {
	var limit int
	var output string
	cmd := &cobra.Command{
		Use:   "geocode [query]",
		Short: "Search for locations by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > client.DefaultGeocodeLimit {
				return fmt.Errorf("--limit must be between 1 and %d", client.DefaultGeocodeLimit)
			}
			if err := validateOutput(output); err != nil {
				return err
			}

			rt, err := setup(false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			places, err := rt.dashboard.Geocode(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return userError(err)
			}

			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), places)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tLAT\tLON")
			for _, p := range places {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", p.Label(), p.Lat, p.Lon)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", client.DefaultGeocodeLimit, "Maximum number of results")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

// userError replaces a service error with the message shown to dashboard
// users, keeping the kind for scripts.
func userError(err error) error {
	_, msg, kind := api.ClassifyError(err)
	return fmt.Errorf("%s (%s)", msg, kind)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCurrent(w io.Writer, r *models.NormalizedReading) {
	title := r.Location.Name
	if r.Location.Country != "" {
		title += ", " + r.Location.Country
	}
	fmt.Fprintf(w, "Weather in %s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	if r.Condition != nil {
		fmt.Fprintf(w, "%-14s %s\n", "Condition:", r.Condition.Label)
	}
	for _, card := range services.MetricCards(*r, models.KPIs{}) {
		fmt.Fprintf(w, "%-14s %s\n", card.Label+":", card.Value)
	}
	if r.FeelsLike != nil {
		fmt.Fprintf(w, "%-14s %s\n", "Feels like:", services.FormatTemperature(*r.FeelsLike, r.Unit))
	}
	fmt.Fprintf(w, "%-14s %s\n", "Observed:", r.LocalTime().Format("2006-01-02 15:04 MST"))
}

func printForecast(w io.Writer, f *models.ForecastView) error {
	title := f.Location.Name
	if f.Location.Country != "" {
		title += ", " + f.Location.Country
	}
	fmt.Fprintf(w, "Forecast for %s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMIN\tMAX\tMEAN\tHUMIDITY\tMAX WIND\tCONDITION\tENTRIES")
	for _, d := range f.Daily {
		condition := "n/a"
		if d.DominantCondition != nil {
			condition = d.DominantCondition.Label
		}
		humidity, wind := "n/a", "n/a"
		if d.MeanHumidity != nil {
			humidity = fmt.Sprintf("%.0f%%", *d.MeanHumidity)
		}
		if d.MaxWindSpeed != nil {
			wind = fmt.Sprintf("%.1f km/h", *d.MaxWindSpeed)
		}
		entries := fmt.Sprintf("%d/%d", d.Entries, d.ExpectedEntries)
		if !d.Complete {
			entries += " (partial)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Date,
			services.FormatTemperature(d.MinTemperature, d.Unit),
			services.FormatTemperature(d.MaxTemperature, d.Unit),
			services.FormatTemperature(d.MeanTemperature, d.Unit),
			humidity, wind, condition, entries)
	}
	return tw.Flush()
}
