package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spacesedan/pulseboard/config"
	"github.com/spacesedan/pulseboard/internal/labeling"
	"github.com/spacesedan/pulseboard/internal/logging"
)

type Config struct {
	MappingPath string
	OutPath     string
	NoLabel     bool
}

func (c Config) Validate() error {
	if c.MappingPath == "" {
		return fmt.Errorf("missing -mapping")
	}
	return nil
}

func defaultConfig() Config {
	return Config{MappingPath: "mapping.yaml"}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.MappingPath, "mapping", cfg.MappingPath, "YAML file listing the sources and their column renames")
	fs.StringVar(&cfg.OutPath, "out", "", "Output CSV (overrides the mapping's output)")
	fs.BoolVar(&cfg.NoLabel, "no-label", false, "Do not fill missing sentiment labels")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/labeler -mapping data/mapping.yaml -out data/combined_data.csv")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolveOutput picks the flag, then the mapping, then a default next to
// the mapping file.
func resolveOutput(cfg Config, m labeling.Mapping) string {
	switch {
	case cfg.OutPath != "":
		return filepath.Clean(cfg.OutPath)
	case m.Output != "":
		return m.Output
	default:
		return filepath.Join(filepath.Dir(cfg.MappingPath), "combined_data.csv")
	}
}

func run(cfg Config) error {
	m, err := labeling.LoadMapping(cfg.MappingPath)
	if err != nil {
		return err
	}

	ds, err := labeling.Combine(m, labeling.OpenFile)
	if err != nil {
		return err
	}

	if m.ShouldLabel() && !cfg.NoLabel {
		labeled := ds.FillSentiment()
		slog.Info("[Labeler] Filled missing sentiment", slog.Int("rows", labeled))
	}

	outPath := resolveOutput(cfg, m)
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("[Labeler] failed to create output: %w", err)
	}
	if err := ds.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("[Labeler] failed to close output: %w", err)
	}

	slog.Info("[Labeler] Combined dataset written",
		slog.String("file", outPath),
		slog.Int("rows", len(ds.Rows)),
		slog.Any("columns", ds.Headers))
	return nil
}

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger(config.Load().LogLevel)

	if err := run(cfg); err != nil {
		if errors.Is(err, labeling.ErrMissingColumn) {
			slog.Error("[Labeler] A mapped column was not found; update the mapping to match the CSV headers",
				slog.String("error", err.Error()))
		} else {
			slog.Error("[Labeler] Failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}
