package main

import (
	"fmt"

	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/internal/output"
	"github.com/panbanda/gitrends/pkg/analytics"
	"github.com/panbanda/gitrends/pkg/config"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadConfig loads the config file and applies the global flags on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("repo") {
		cfg.Repository.Path = c.String("repo")
	}
	if c.IsSet("data-dir") {
		cfg.Repository.DataDir = c.String("data-dir")
	}
	if c.IsSet("format") {
		cfg.Output.Format = string(output.ParseFormat(c.String("format")))
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
}

// openLive creates the live holder for the configured data directory. A date
// range set in the config takes precedence over the persisted one.
func openLive(cfg *config.Config, logger *logrus.Logger) (*analytics.Live, error) {
	opts := []analytics.LiveOption{analytics.WithLiveLogger(logger)}
	if r := cfg.DateRange(); r.MinDate != nil || r.MaxDate != nil {
		opts = append(opts, analytics.WithDateRange(r))
	}
	return analytics.NewLive(cfg.DataDir(), opts...)
}

// queryEnv is what every query command needs.
type queryEnv struct {
	cfg       *config.Config
	engine    *analytics.Engine
	formatter *output.Formatter
}

func (q *queryEnv) Close() error {
	return q.formatter.Close()
}

// openQuery loads the config, builds the engine over the index and opens
// the formatter.
func openQuery(c *cli.Context) (*queryEnv, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	if !store.Exists(cfg.DataDir()) {
		return nil, fmt.Errorf("%w: no index in %s (run `gitrends index` first)", store.ErrNotIndexed, cfg.DataDir())
	}

	live, err := openLive(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := live.Reload(c.Context, false); err != nil {
		return nil, err
	}
	engine, err := live.Current()
	if err != nil {
		return nil, err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return nil, err
	}
	return &queryEnv{cfg: cfg, engine: engine, formatter: formatter}, nil
}

// Shared command flags

func modulesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "modules",
		Aliases: []string{"m"},
		Usage:   "Report modules instead of files",
	}
}

func topFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "top",
		Value: 20,
		Usage: "Show the top N entries, 0 for all",
	}
}

// entityLabel names the rows of a files-or-modules report.
func entityLabel(modules bool) string {
	if modules {
		return "Module"
	}
	return "File"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// firstLine returns the subject line of a commit message.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			return s[:i]
		}
	}
	return s
}
