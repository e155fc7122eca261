package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cleaners != "all" {
		t.Errorf("Default cleaners = %v, want all", cfg.Cleaners)
	}
	if cfg.Strategy != "replace" {
		t.Errorf("Default strategy = %q, want %q", cfg.Strategy, "replace")
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.FailOn != "none" {
		t.Errorf("Default failOn = %q, want %q", cfg.FailOn, "none")
	}
	if cfg.Telemetry.Provider != "none" {
		t.Errorf("Default telemetry = %q, want none", cfg.Telemetry.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("PIICLEANER_CLEANERS", "email, nino")
	t.Setenv("PIICLEANER_STRATEGY", "redact")
	t.Setenv("PIICLEANER_IGNORE_CASE", "true")
	t.Setenv("PIICLEANER_WORKERS", "3")
	t.Setenv("PIICLEANER_FORMAT", "json")
	t.Setenv("PIICLEANER_FAIL_ON", "any")
	t.Setenv("PIICLEANER_ADDR", ":9090")
	t.Setenv("PIICLEANER_TELEMETRY", "prometheus")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if !reflect.DeepEqual(cfg.Cleaners, []string{"email", "nino"}) {
		t.Errorf("Cleaners = %v, want [email nino]", cfg.Cleaners)
	}
	if cfg.Strategy != "redact" {
		t.Errorf("Strategy = %q, want redact", cfg.Strategy)
	}
	if !cfg.IgnoreCase {
		t.Error("IgnoreCase should be true")
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.FailOn != "any" {
		t.Errorf("FailOn = %q, want any", cfg.FailOn)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Telemetry.Provider != "prometheus" {
		t.Errorf("Telemetry.Provider = %q, want prometheus", cfg.Telemetry.Provider)
	}
}

func TestMergeEnv_InvalidWorkers(t *testing.T) {
	t.Setenv("PIICLEANER_WORKERS", "notanumber")
	cfg := Default()
	if err := mergeEnv(&cfg); err == nil {
		t.Error("Expected error for invalid PIICLEANER_WORKERS")
	}
}

func TestMergeEnv_InvalidIgnoreCase(t *testing.T) {
	t.Setenv("PIICLEANER_IGNORE_CASE", "sometimes")
	cfg := Default()
	if err := mergeEnv(&cfg); err == nil {
		t.Error("Expected error for invalid PIICLEANER_IGNORE_CASE")
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"cleaners":    "postcode",
		"strategy":    "redact",
		"format":      "sarif",
		"maxFindings": "25",
		"placeholder": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cleaners != "postcode" {
		t.Errorf("Cleaners = %v, want postcode", cfg.Cleaners)
	}
	if cfg.Strategy != "redact" {
		t.Errorf("Strategy = %q, want redact", cfg.Strategy)
	}
	if cfg.Format != "sarif" {
		t.Errorf("Format = %q, want sarif", cfg.Format)
	}
	if cfg.MaxFindings != 25 {
		t.Errorf("MaxFindings = %d, want 25", cfg.MaxFindings)
	}
	if cfg.Placeholder != "" {
		t.Errorf("empty override should be ignored, Placeholder = %q", cfg.Placeholder)
	}
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	if err := mergeOverrides(&cfg, nil); err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "replace" {
		t.Errorf("Strategy changed with nil overrides")
	}
}

func TestConfigPrecedence(t *testing.T) {
	t.Setenv("PIICLEANER_STRATEGY", "redact")

	cfg := Default()
	mergeFile(&cfg, Config{Strategy: "replace", Format: "markdown"})
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}
	if cfg.Strategy != "redact" {
		t.Errorf("After env merge, Strategy = %q, want redact", cfg.Strategy)
	}
	if cfg.Format != "markdown" {
		t.Errorf("File value lost, Format = %q", cfg.Format)
	}
	if err := mergeOverrides(&cfg, map[string]string{"strategy": "replace"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "replace" {
		t.Errorf("After override, Strategy = %q, want replace", cfg.Strategy)
	}
}

func TestMergeFile_AllFields(t *testing.T) {
	dst := Default()
	src := Config{
		Cleaners:     []any{"email"},
		Strategy:     "redact",
		Placeholder:  "<pii>",
		IgnoreCase:   true,
		Workers:      2,
		Format:       "json",
		FailOn:       "any",
		MaxFindings:  10,
		Include:      []string{"*.csv"},
		Exclude:      []string{"tmp/**"},
		MaxDiffBytes: 1000,
		Server:       ServerConfig{Addr: ":1", LogMode: "development", MaxBodyBytes: 5},
		Telemetry:    TelemetryConfig{Provider: "statsd", StatsdAddr: "127.0.0.1:8125"},
	}
	mergeFile(&dst, src)
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("mergeFile() = %+v, want %+v", dst, src)
	}
}

func TestMergeFile_Empty(t *testing.T) {
	dst := Default()
	mergeFile(&dst, Config{})
	if !reflect.DeepEqual(dst, Default()) {
		t.Errorf("empty file changed defaults: %+v", dst)
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key   string
		value string
	}{
		{"cleaners", "email,telephone"},
		{"strategy", "redact"},
		{"placeholder", "***"},
		{"ignoreCase", "true"},
		{"workers", "8"},
		{"format", "json"},
		{"failOn", "any"},
		{"maxFindings", "100"},
		{"maxDiffBytes", "1000000"},
		{"include", "*.go, *.md"},
		{"exclude", "vendor/**"},
		{"server.addr", ":7070"},
		{"server.logMode", "development"},
		{"server.maxBodyBytes", "2048"},
		{"telemetry.provider", "statsd"},
		{"telemetry.statsdAddr", "localhost:8125"},
	}
	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%q, %q) error: %v", tt.key, tt.value, err)
		}
	}
	if !reflect.DeepEqual(cfg.Include, []string{"*.go", "*.md"}) {
		t.Errorf("Include = %v", cfg.Include)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSetField_Errors(t *testing.T) {
	cfg := Default()
	for _, kv := range [][2]string{
		{"nonexistent", "value"},
		{"maxFindings", "notanumber"},
		{"ignoreCase", "maybe"},
		{"server.maxBodyBytes", "big"},
	} {
		if err := SetField(&cfg, kv[0], kv[1]); err == nil {
			t.Errorf("SetField(%q, %q): expected error", kv[0], kv[1])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad strategy", func(c *Config) { c.Strategy = "shred" }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"bad failOn", func(c *Config) { c.FailOn = "high" }},
		{"bad telemetry", func(c *Config) { c.Telemetry.Provider = "otel" }},
		{"bad cleaners", func(c *Config) { c.Cleaners = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate_StrategyErrorType(t *testing.T) {
	cfg := Default()
	cfg.Strategy = "shred"
	var cfgErr *pii.InvalidConfigurationError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("err = %v, want InvalidConfigurationError", err)
	}
}

func TestNewCleaner(t *testing.T) {
	cfg := Default()
	cfg.Cleaners = []any{"email"}
	cfg.Placeholder = "<pii>"
	c, err := cfg.NewCleaner()
	if err != nil {
		t.Fatalf("NewCleaner: %v", err)
	}
	s, err := cfg.StrategyValue()
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Clean("mail a@b.com", s); got != "mail <pii>" {
		t.Errorf("Clean = %q", got)
	}
	if s != redact.Replace {
		t.Errorf("StrategyValue = %v, want replace", s)
	}

	cfg.Cleaners = []any{"ssn"}
	var unknown *pii.UnknownDetectorError
	if _, err := cfg.NewCleaner(); !errors.As(err, &unknown) {
		t.Errorf("err = %v, want UnknownDetectorError", err)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg-test/piicleaner" {
		t.Errorf("ConfigDir = %q, want %q", dir, "/tmp/xdg-test/piicleaner")
	}
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if path != "/tmp/xdg-test/piicleaner/config.yaml" {
		t.Errorf("ConfigPath = %q", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Cleaners = []string{"email", "nino"}
	cfg.Strategy = "redact"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !reflect.DeepEqual(loaded.Cleaners, []any{"email", "nino"}) {
		t.Errorf("Cleaners = %#v", loaded.Cleaners)
	}
	if loaded.Strategy != "redact" {
		t.Errorf("Strategy = %q, want redact", loaded.Strategy)
	}

	merged, err := Load(map[string]string{"format": "json"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if merged.Strategy != "redact" || merged.Format != "json" {
		t.Errorf("Load = %+v", merged)
	}
}

func TestLoad_ScalarCleanersInFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	path := filepath.Join(tmpDir, "piicleaner", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("cleaners: email\nstrategy: redact\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	sel, err := cfg.Selection()
	if err != nil {
		t.Fatal(err)
	}
	if got := sel.List(); !reflect.DeepEqual(got, []string{"email"}) {
		t.Errorf("Selection = %v, want [email]", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Strategy != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadFileWithDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadFileWithDefaults()
	if err != nil {
		t.Fatalf("LoadFileWithDefaults error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("with no file = %+v, want defaults", cfg)
	}

	saved := Default()
	saved.Format = "sarif"
	if err := Save(saved); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFileWithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Format != "sarif" || cfg.Strategy != "replace" {
		t.Errorf("Format = %q, Strategy = %q", cfg.Format, cfg.Strategy)
	}
}
