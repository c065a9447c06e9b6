// Package config loads wflint.toml. The file is looked up from the working
// directory upwards; every value has a default, so the file is optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"wflint/internal/builder"
	"wflint/internal/diag"
	"wflint/internal/expr"
	"wflint/internal/jobgraph"
	"wflint/internal/rules"
)

// FileName is the name searched for by Find.
const FileName = "wflint.toml"

// ErrNotFound is returned by Find when no config file exists up to the root.
var ErrNotFound = errors.New("no " + FileName + " found")

// Config mirrors the sections of wflint.toml.
type Config struct {
	Path    string        `toml:"-"`
	Check   CheckConfig   `toml:"check"`
	Rules   RulesConfig   `toml:"rules"`
	Network NetworkConfig `toml:"network"`
	Cache   CacheConfig   `toml:"cache"`

	severity map[string]diag.Severity
}

type CheckConfig struct {
	Workflows      string  `toml:"workflows"`
	MaxWarnings    int     `toml:"max-warnings"` // < 0: без ограничения
	Jobs           int     `toml:"jobs"`
	MaxDiagnostics int     `toml:"max-diagnostics"`
	Similarity     float64 `toml:"similarity"`
}

type RulesConfig struct {
	Disable  []string          `toml:"disable"`
	Severity map[string]string `toml:"severity"`
}

type NetworkConfig struct {
	Enabled    bool     `toml:"enabled"`
	Timeout    Duration `toml:"timeout"`
	Retries    int      `toml:"retries"`
	TokenEnv   string   `toml:"token-env"`
	RawBaseURL string   `toml:"raw-base-url"`
	APIBaseURL string   `toml:"api-base-url"`
}

type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`
}

// Duration decodes TOML strings such as "10s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Check: CheckConfig{
			Workflows:      filepath.Join(".github", "workflows"),
			MaxWarnings:    -1,
			MaxDiagnostics: 200,
			Similarity:     rules.DefaultSimilarity,
		},
		Network: NetworkConfig{
			Enabled:  true,
			Timeout:  Duration{10 * time.Second},
			Retries:  2,
			TokenEnv: "GITHUB_TOKEN",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     Duration{24 * time.Hour},
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Discover loads explicit when set, otherwise the nearest wflint.toml above
// startDir, otherwise the defaults.
func Discover(startDir, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		cfg := Default()
		return cfg, cfg.validate(toml.MetaData{})
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load decodes path on top of the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.validate(meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// RuleNames lists every name accepted in [rules]: the rule set plus the
// built-in structural checks.
func RuleNames() []string {
	return append([]string{builder.RuleName, expr.RuleName, jobgraph.RuleName}, rules.Names()...)
}

func (c *Config) validate(meta toml.MetaData) error {
	known := RuleNames()
	for _, name := range c.Rules.Disable {
		if !slices.Contains(known, name) {
			return fmt.Errorf("[rules].disable: unknown rule %q", name)
		}
	}
	c.severity = make(map[string]diag.Severity, len(c.Rules.Severity))
	for name, v := range c.Rules.Severity {
		if !slices.Contains(known, name) {
			return fmt.Errorf("[rules.severity]: unknown rule %q", name)
		}
		sev, err := diag.ParseSeverity(v)
		if err != nil {
			return fmt.Errorf("[rules.severity].%s: %w", name, err)
		}
		c.severity[name] = sev
	}
	if meta.IsDefined("check", "similarity") && (c.Check.Similarity <= 0 || c.Check.Similarity > 1) {
		return fmt.Errorf("[check].similarity must be in (0, 1], got %v", c.Check.Similarity)
	}
	if meta.IsDefined("check", "workflows") && strings.TrimSpace(c.Check.Workflows) == "" {
		return errors.New("[check].workflows must not be empty")
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative, got %d", c.Check.Jobs)
	}
	if c.Network.Retries < 0 {
		return fmt.Errorf("[network].retries must not be negative, got %d", c.Network.Retries)
	}
	return nil
}

// Disabled returns the set of switched-off rules.
func (c *Config) Disabled() map[string]bool {
	out := make(map[string]bool, len(c.Rules.Disable))
	for _, name := range c.Rules.Disable {
		out[name] = true
	}
	return out
}

// Severities returns the validated severity overrides.
func (c *Config) Severities() map[string]diag.Severity {
	return c.severity
}

// Token reads the API token from the configured environment variable.
func (c *Config) Token() string {
	if c.Network.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Network.TokenEnv)
}

// WorkflowsDir resolves [check].workflows against the directory of the
// config file, or against base when there is none.
func (c *Config) WorkflowsDir(base string) string {
	dir := c.Check.Workflows
	if filepath.IsAbs(dir) {
		return dir
	}
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}
	return filepath.Join(base, dir)
}
