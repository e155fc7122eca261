package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/redact"
)

// Config represents the piicleaner configuration.
type Config struct {
	// Cleaners is "all", a single name, or a list of names. It is kept
	// loosely typed so the file can use either a scalar or a sequence.
	Cleaners     any             `yaml:"cleaners"`
	Strategy     string          `yaml:"strategy"`
	Placeholder  string          `yaml:"placeholder,omitempty"`
	IgnoreCase   bool            `yaml:"ignoreCase"`
	Workers      int             `yaml:"workers,omitempty"`
	Format       string          `yaml:"format"`
	FailOn       string          `yaml:"failOn"`
	MaxFindings  int             `yaml:"maxFindings"`
	Include      []string        `yaml:"include"`
	Exclude      []string        `yaml:"exclude"`
	MaxDiffBytes int             `yaml:"maxDiffBytes"`
	Server       ServerConfig    `yaml:"server"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	LogMode string `yaml:"logMode"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

// TelemetryConfig selects the metrics backend.
type TelemetryConfig struct {
	Provider   string `yaml:"provider"`
	StatsdAddr string `yaml:"statsdAddr,omitempty"`
}

// envConfig binds PIICLEANER_* variables. Booleans are strings so that an
// unset variable can be told apart from "false".
type envConfig struct {
	Cleaners     string `env:"PIICLEANER_CLEANERS"`
	Strategy     string `env:"PIICLEANER_STRATEGY"`
	Placeholder  string `env:"PIICLEANER_PLACEHOLDER"`
	IgnoreCase   string `env:"PIICLEANER_IGNORE_CASE"`
	Workers      int    `env:"PIICLEANER_WORKERS"`
	Format       string `env:"PIICLEANER_FORMAT"`
	FailOn       string `env:"PIICLEANER_FAIL_ON"`
	MaxFindings  int    `env:"PIICLEANER_MAX_FINDINGS"`
	ServerAddr   string `env:"PIICLEANER_ADDR"`
	LogMode      string `env:"PIICLEANER_LOG_MODE"`
	Telemetry    string `env:"PIICLEANER_TELEMETRY"`
	StatsdAddr   string `env:"PIICLEANER_STATSD_ADDR"`
	MaxBodyBytes int64  `env:"PIICLEANER_MAX_BODY_BYTES"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Cleaners:     "all",
		Strategy:     "replace",
		Format:       "text",
		FailOn:       "none",
		MaxFindings:  200,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/testdata/**"},
		MaxDiffBytes: 500000,
		Server: ServerConfig{
			Addr:         ":8080",
			LogMode:      "production",
			MaxBodyBytes: 10 << 20,
		},
		Telemetry: TelemetryConfig{
			Provider: "none",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for piicleaner.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "piicleaner"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "piicleaner"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "piicleaner"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "piicleaner"), nil
	default:
		return filepath.Join(home, ".config", "piicleaner"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadFileWithDefaults is the defaults overlaid with the config file,
// without the environment. config set edits this view.
func LoadFileWithDefaults() (Config, error) {
	cfg := Default()
	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// A .env file in the working directory, if present, is loaded into the
// environment first. The overrides map comes from CLI flags (only non-zero
// values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)

	_ = godotenv.Load()
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Cleaners != nil {
		dst.Cleaners = src.Cleaners
	}
	if src.Strategy != "" {
		dst.Strategy = src.Strategy
	}
	if src.Placeholder != "" {
		dst.Placeholder = src.Placeholder
	}
	// false is indistinguishable from unset and is also the default
	dst.IgnoreCase = src.IgnoreCase || dst.IgnoreCase
	if src.Workers > 0 {
		dst.Workers = src.Workers
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.MaxFindings > 0 {
		dst.MaxFindings = src.MaxFindings
	}
	if len(src.Include) > 0 {
		dst.Include = src.Include
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.MaxDiffBytes > 0 {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.LogMode != "" {
		dst.Server.LogMode = src.Server.LogMode
	}
	if src.Server.MaxBodyBytes > 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}
	if src.Telemetry.Provider != "" {
		dst.Telemetry.Provider = src.Telemetry.Provider
	}
	if src.Telemetry.StatsdAddr != "" {
		dst.Telemetry.StatsdAddr = src.Telemetry.StatsdAddr
	}
}

func mergeEnv(cfg *Config) error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if e.Cleaners != "" {
		cfg.Cleaners = parseCleaners(e.Cleaners)
	}
	if e.Strategy != "" {
		cfg.Strategy = e.Strategy
	}
	if e.Placeholder != "" {
		cfg.Placeholder = e.Placeholder
	}
	if e.IgnoreCase != "" {
		b, err := strconv.ParseBool(e.IgnoreCase)
		if err != nil {
			return fmt.Errorf("PIICLEANER_IGNORE_CASE: %w", err)
		}
		cfg.IgnoreCase = b
	}
	if e.Workers > 0 {
		cfg.Workers = e.Workers
	}
	if e.Format != "" {
		cfg.Format = e.Format
	}
	if e.FailOn != "" {
		cfg.FailOn = e.FailOn
	}
	if e.MaxFindings > 0 {
		cfg.MaxFindings = e.MaxFindings
	}
	if e.ServerAddr != "" {
		cfg.Server.Addr = e.ServerAddr
	}
	if e.LogMode != "" {
		cfg.Server.LogMode = e.LogMode
	}
	if e.MaxBodyBytes > 0 {
		cfg.Server.MaxBodyBytes = e.MaxBodyBytes
	}
	if e.Telemetry != "" {
		cfg.Telemetry.Provider = e.Telemetry
	}
	if e.StatsdAddr != "" {
		cfg.Telemetry.StatsdAddr = e.StatsdAddr
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "cleaners":
		cfg.Cleaners = parseCleaners(value)
	case "strategy":
		cfg.Strategy = value
	case "placeholder":
		cfg.Placeholder = value
	case "ignoreCase":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ignoreCase must be true or false: %w", err)
		}
		cfg.IgnoreCase = b
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers must be an integer: %w", err)
		}
		cfg.Workers = n
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "maxFindings":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxFindings must be an integer: %w", err)
		}
		cfg.MaxFindings = n
	case "maxDiffBytes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxDiffBytes must be an integer: %w", err)
		}
		cfg.MaxDiffBytes = n
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "server.addr":
		cfg.Server.Addr = value
	case "server.logMode":
		cfg.Server.LogMode = value
	case "server.maxBodyBytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("server.maxBodyBytes must be an integer: %w", err)
		}
		cfg.Server.MaxBodyBytes = n
	case "telemetry.provider":
		cfg.Telemetry.Provider = value
	case "telemetry.statsdAddr":
		cfg.Telemetry.StatsdAddr = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Validate checks enumerated fields and the cleaner selection shape.
// Cleaner names themselves are checked when a Cleaner is built.
func (c Config) Validate() error {
	if _, err := c.Selection(); err != nil {
		return err
	}
	if _, err := redact.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json", "markdown", "sarif":
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, markdown, sarif)", c.Format)
	}
	switch c.FailOn {
	case "none", "any":
	default:
		return fmt.Errorf("unknown failOn %q (valid: none, any)", c.FailOn)
	}
	switch c.Telemetry.Provider {
	case "none", "prometheus", "statsd":
	default:
		return fmt.Errorf("unknown telemetry provider %q (valid: none, prometheus, statsd)", c.Telemetry.Provider)
	}
	return nil
}

// Selection converts Cleaners into a cleaner.Selection.
func (c Config) Selection() (cleaner.Selection, error) {
	return cleaner.ParseSelection(c.Cleaners)
}

// StrategyValue parses Strategy.
func (c Config) StrategyValue() (redact.Strategy, error) {
	return redact.ParseStrategy(c.Strategy)
}

// NewCleaner builds a Cleaner from the selection and cleaner options.
func (c Config) NewCleaner() (*cleaner.Cleaner, error) {
	sel, err := c.Selection()
	if err != nil {
		return nil, err
	}
	return cleaner.New(sel, c.CleanerOptions()...)
}

// CleanerOptions returns every cleaner option except the selection.
func (c Config) CleanerOptions() []cleaner.Option {
	opts := []cleaner.Option{
		cleaner.WithIgnoreCase(c.IgnoreCase),
		cleaner.WithWorkers(c.Workers),
	}
	if c.Placeholder != "" {
		opts = append(opts, cleaner.WithPlaceholder(c.Placeholder))
	}
	return opts
}

// parseCleaners turns "all" or "a,b" into the loosely typed form stored in
// Config.Cleaners.
func parseCleaners(v string) any {
	names := splitList(v)
	if len(names) == 1 {
		return names[0]
	}
	return names
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
