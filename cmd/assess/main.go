// Command assess scores one or more buildings and prints the assessments as
// JSON. Attributes come from flags, or from a JSON file holding a single
// configuration or an array of them.
//
// Usage:
//
//	go run ./cmd/assess -year 1985 -typology StiltApartment -material Concrete \
//	  -floors 5 -zone "Zone IV"
//
//	go run ./cmd/assess -in buildings.json -predictor-url http://localhost:8000
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/adapter/predictor"
	"github.com/couchcryptid/retrofit-advisor/internal/advisor"
	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
)

type options struct {
	in           string
	predictorURL string
	timeout      time.Duration
	verbose      bool
	cfg          domain.BuildingConfiguration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	configs, asArray, err := loadConfigurations(opts)
	if err != nil {
		fmt.Fprintf(stderr, "assess: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetricsForTesting()

	var assessorOpts []advisor.Option
	if opts.predictorURL != "" {
		assessorOpts = append(assessorOpts, advisor.WithAnalyzer(predictor.NewClient(opts.predictorURL, opts.timeout, metrics, logger)))
	}
	assessor := advisor.New(logger, metrics, assessorOpts...)

	assessments := make([]domain.Assessment, 0, len(configs))
	for i, cfg := range configs {
		if err := domain.ValidateConfiguration(cfg); err != nil {
			fmt.Fprintf(stderr, "assess: building %d: %v\n", i+1, err)
			return 1
		}
		assessments = append(assessments, assessor.Assess(context.Background(), cfg))
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	var out any = assessments
	if !asArray {
		out = assessments[0]
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "assess: write output: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := domain.DefaultConfiguration()
	opts := options{}

	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "JSON file with a configuration or an array of configurations")
	fs.StringVar(&opts.predictorURL, "predictor-url", "", "analysis service base URL; local heuristic only when empty")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Second, "analysis service request timeout")
	fs.BoolVar(&opts.verbose, "v", false, "log at debug level")

	year := fs.Int("year", defaults.Year, "construction year")
	typology := fs.String("typology", string(defaults.Typology), "building typology")
	material := fs.String("material", string(defaults.Material), "primary structural material")
	floors := fs.Int("floors", defaults.Floors, "number of floors")
	zone := fs.String("zone", string(defaults.SeismicZone), `seismic zone, e.g. "Zone IV"`)
	occupancy := fs.String("occupancy", string(defaults.Occupancy), "occupancy type")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.cfg = defaults
	opts.cfg.Year = *year
	opts.cfg.Typology = domain.Typology(*typology)
	opts.cfg.Material = domain.Material(*material)
	opts.cfg.Floors = *floors
	opts.cfg.SeismicZone = domain.SeismicZone(*zone)
	opts.cfg.Occupancy = domain.Occupancy(*occupancy)
	return opts, nil
}

// loadConfigurations returns the flag configuration, or the contents of -in.
// asArray reports whether the input was a JSON array, which the output mirrors.
func loadConfigurations(opts options) (configs []domain.BuildingConfiguration, asArray bool, err error) {
	if opts.in == "" {
		return []domain.BuildingConfiguration{opts.cfg}, false, nil
	}

	data, err := os.ReadFile(opts.in)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", opts.in, err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &configs); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", opts.in, err)
		}
		if len(configs) == 0 {
			return nil, false, fmt.Errorf("%s contains no configurations", opts.in)
		}
		return configs, true, nil
	}

	var cfg domain.BuildingConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", opts.in, err)
	}
	return []domain.BuildingConfiguration{cfg}, false, nil
}
