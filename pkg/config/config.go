package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/panbanda/gitrends/pkg/models"
)

// Config holds all configuration options for gitrends.
type Config struct {
	// Repository location and where indexed tables live
	Repository RepositoryConfig `koanf:"repository" toml:"repository" yaml:"repository"`

	// Indexing pipeline settings
	Indexing IndexingConfig `koanf:"indexing" toml:"indexing" yaml:"indexing"`

	// Date range analytics are restricted to
	Querying QueryingConfig `koanf:"querying" toml:"querying" yaml:"querying"`

	// Change coupling tree thresholds
	Trees TreesConfig `koanf:"trees" toml:"trees" yaml:"trees"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`

	// Logging settings
	Log LogConfig `koanf:"log" toml:"log" yaml:"log"`
}

// RepositoryConfig locates the repository and the data directory.
type RepositoryConfig struct {
	Path    string `koanf:"path" toml:"path" yaml:"path"`
	DataDir string `koanf:"data_dir" toml:"data_dir" yaml:"data_dir"`
}

// IndexingConfig controls the indexing run.
type IndexingConfig struct {
	Workers int  `koanf:"workers" toml:"workers" yaml:"workers"`
	Force   bool `koanf:"force" toml:"force" yaml:"force"`
}

// QueryingConfig bounds the analyzed history. Dates are unix seconds; zero
// leaves that end open.
type QueryingConfig struct {
	MinDate int64 `koanf:"min_date" toml:"min_date" yaml:"min_date"`
	MaxDate int64 `koanf:"max_date" toml:"max_date" yaml:"max_date"`
}

// TreesConfig holds the change coupling tree thresholds.
type TreesConfig struct {
	MinRevisions uint64  `koanf:"min_revisions" toml:"min_revisions" yaml:"min_revisions"`
	MinRatio     float64 `koanf:"min_ratio" toml:"min_ratio" yaml:"min_ratio"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level" yaml:"level"`
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Path:    ".",
			DataDir: ".gitrends",
		},
		Indexing: IndexingConfig{
			Workers: runtime.NumCPU(),
		},
		Trees: TreesConfig{
			MinRevisions: 15,
			MinRatio:     0.2,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FileNames are the config files searched by Find, in order.
var FileNames = []string{
	"gitrends.toml",
	"gitrends.yaml",
	"gitrends.yml",
	"gitrends.json",
}

// Find returns the first config file found in dir or dir/.gitrends, or ""
// when there is none.
func Find(dir string) string {
	for _, sub := range []string{"", ".gitrends"} {
		for _, name := range FileNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads path when set, otherwise the first config found in the
// current directory, otherwise the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = Find(".")
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "", "text", "json", "markdown", "toon":
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Indexing.Workers < 0 {
		return fmt.Errorf("indexing.workers: must not be negative, got %d", c.Indexing.Workers)
	}
	if c.Trees.MinRatio < 0 || c.Trees.MinRatio > 1 {
		return fmt.Errorf("trees.min_ratio: must be within [0, 1], got %g", c.Trees.MinRatio)
	}
	if c.Querying.MinDate != 0 && c.Querying.MaxDate != 0 && c.Querying.MinDate > c.Querying.MaxDate {
		return fmt.Errorf("querying: min_date %d is after max_date %d", c.Querying.MinDate, c.Querying.MaxDate)
	}
	return nil
}

// DateRange converts the querying section into a date range.
func (c *Config) DateRange() models.DateRange {
	var r models.DateRange
	if c.Querying.MinDate != 0 {
		v := c.Querying.MinDate
		r.MinDate = &v
	}
	if c.Querying.MaxDate != 0 {
		v := c.Querying.MaxDate
		r.MaxDate = &v
	}
	return r
}

// DataDir returns the data directory, relative to the repository path unless
// absolute.
func (c *Config) DataDir() string {
	if filepath.IsAbs(c.Repository.DataDir) {
		return c.Repository.DataDir
	}
	return filepath.Join(c.Repository.Path, c.Repository.DataDir)
}

// EncodeTOML renders the config as TOML.
func (c *Config) EncodeTOML() ([]byte, error) {
	return gotoml.Marshal(c)
}

// EncodeYAML renders the config as YAML.
func (c *Config) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
