package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfcore/core"
)

// Config is the configuration shared by the reader, the availability
// engine and the inspector.
type Config struct {
	// Password tried as user and then owner password. ${VAR} references
	// are expanded from the environment.
	Password string `yaml:"password" json:"password"`

	Limits LimitsConfig `yaml:"limits" json:"limits"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Avail  AvailConfig  `yaml:"avail" json:"avail"`
}

// LimitsConfig mirrors core.Limits. Zero fields take the defaults.
type LimitsConfig struct {
	MaxParseDepth    int    `yaml:"max_parse_depth" json:"max_parse_depth"`
	MaxXRefChain     int    `yaml:"max_xref_chain" json:"max_xref_chain"`
	MaxObjectNumber  uint32 `yaml:"max_object_number" json:"max_object_number"`
	MaxXRefSize      int    `yaml:"max_xref_size" json:"max_xref_size"`
	MaxPageTreeNodes int    `yaml:"max_page_tree_nodes" json:"max_page_tree_nodes"`
	MaxDecodedSize   int64  `yaml:"max_decoded_size" json:"max_decoded_size"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" json:"level"`

	// Format is text or json
	Format string `yaml:"format" json:"format"`
}

// AvailConfig sizes the requests made by the availability engine
type AvailConfig struct {
	// Bytes requested from the start of the file for the header and the
	// linearization dictionary
	HeaderProbe int64 `yaml:"header_probe" json:"header_probe"`

	// Bytes requested from the end of the file when searching startxref
	TailProbe int64 `yaml:"tail_probe" json:"tail_probe"`
}

// Default returns a complete configuration
func Default() *Config {
	l := core.DefaultLimits()
	return &Config{
		Limits: LimitsConfig{
			MaxParseDepth:    l.MaxParseDepth,
			MaxXRefChain:     l.MaxXRefChain,
			MaxObjectNumber:  l.MaxObjectNumber,
			MaxXRefSize:      l.MaxXRefSize,
			MaxPageTreeNodes: l.MaxPageTreeNodes,
			MaxDecodedSize:   l.MaxDecodedSize,
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Avail: AvailConfig{HeaderProbe: 1024, TailProbe: 1024},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Password = os.ExpandEnv(cfg.Password)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes c as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the values that have no sensible fallback
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if c.Limits.MaxParseDepth < 0 || c.Limits.MaxXRefChain < 0 || c.Limits.MaxXRefSize < 0 ||
		c.Limits.MaxPageTreeNodes < 0 || c.Limits.MaxDecodedSize < 0 {
		return fmt.Errorf("limits must be non-negative")
	}
	if c.Avail.HeaderProbe < 0 || c.Avail.TailProbe < 0 {
		return fmt.Errorf("avail probes must be non-negative")
	}
	return nil
}

// CoreLimits converts the limits section, filling zero fields with defaults
func (c *Config) CoreLimits() core.Limits {
	return core.Limits{
		MaxParseDepth:    c.Limits.MaxParseDepth,
		MaxXRefChain:     c.Limits.MaxXRefChain,
		MaxObjectNumber:  c.Limits.MaxObjectNumber,
		MaxXRefSize:      c.Limits.MaxXRefSize,
		MaxPageTreeNodes: c.Limits.MaxPageTreeNodes,
		MaxDecodedSize:   c.Limits.MaxDecodedSize,
	}.Normalize()
}

// Logger builds a logger writing to w with the configured level and format
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
