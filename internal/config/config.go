package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TALLY"

// Config represents the tally configuration.
type Config struct {
	Provider        string          `mapstructure:"provider" json:"provider" validate:"required,oneof=anthropic openai gemini google ollama lmstudio"`
	Model           string          `mapstructure:"model" json:"model"`
	Format          string          `mapstructure:"format" json:"format" validate:"oneof=text json markdown sarif"`
	FailOn          string          `mapstructure:"failOn" json:"failOn" validate:"oneof=none info warning error"`
	MaxIssues       int             `mapstructure:"maxIssues" json:"maxIssues" validate:"gte=0"`
	ContextLines    int             `mapstructure:"contextLines" json:"contextLines" validate:"gte=0"`
	Include         []string        `mapstructure:"include" json:"include"`
	Exclude         []string        `mapstructure:"exclude" json:"exclude"`
	MaxDiffBytes    int             `mapstructure:"maxDiffBytes" json:"maxDiffBytes" validate:"gte=0"`
	RulesFile       string          `mapstructure:"rulesFile" json:"rulesFile,omitempty"`
	DiagnosticsFile string          `mapstructure:"diagnosticsFile" json:"diagnosticsFile,omitempty"`
	Concurrency     int             `mapstructure:"concurrency" json:"concurrency" validate:"gte=1,lte=64"`
	Analyzers       AnalyzersConfig `mapstructure:"analyzers" json:"analyzers"`
	Cache           CacheConfig     `mapstructure:"cache" json:"cache"`
	Privacy         PrivacyConfig   `mapstructure:"privacy" json:"privacy"`
}

// AnalyzersConfig toggles individual analysis sources.
type AnalyzersConfig struct {
	Heuristic  bool `mapstructure:"heuristic" json:"heuristic"`
	Diagnostic bool `mapstructure:"diagnostic" json:"diagnostic"`
	Semantic   bool `mapstructure:"semantic" json:"semantic"`
	DiffLocal  bool `mapstructure:"diffLocal" json:"diffLocal"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Dir     string `mapstructure:"dir" json:"dir,omitempty"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `mapstructure:"redactSecrets" json:"redactSecrets"`
	RedactPaths   []string `mapstructure:"redactPaths" json:"redactPaths,omitempty"`
}

// Keys lists every settable config key.
var Keys = []string{
	"provider", "model", "format", "failOn", "maxIssues", "contextLines",
	"include", "exclude", "maxDiffBytes", "rulesFile", "diagnosticsFile",
	"concurrency",
	"analyzers.heuristic", "analyzers.diagnostic", "analyzers.semantic", "analyzers.diffLocal",
	"cache.enabled", "cache.dir",
	"privacy.redactSecrets", "privacy.redactPaths",
}

var validate = validator.New()

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-6",
		Format:       "text",
		FailOn:       "none",
		MaxIssues:    200,
		ContextLines: 3,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes: 500000,
		Concurrency:  4,
		Analyzers: AnalyzersConfig{
			Heuristic:  true,
			Diagnostic: true,
			Semantic:   true,
			DiffLocal:  true,
		},
		Cache: CacheConfig{Enabled: true},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for tally.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "tally"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tally"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "tally"), nil
	default:
		return filepath.Join(home, ".config", "tally"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// LoadFile loads the config file merged over defaults, ignoring the
// environment. A missing file yields the defaults.
func LoadFile() (Config, error) {
	v, err := newViper(false)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
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
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	v, err := newViper(true)
	if err != nil {
		return Config{}, err
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if !isKey(key) {
			return Config{}, fmt.Errorf("unknown config key: %s", key)
		}
		v.Set(key, value)
	}
	return decode(v)
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the resulting config is invalid.
func SetField(cfg *Config, key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	var current map[string]any
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	v := viper.New()
	if err := v.MergeConfigMap(current); err != nil {
		return err
	}
	v.Set(key, value)

	updated, err := decode(v)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	*cfg = updated
	return nil
}

func newViper(withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		for _, key := range Keys {
			if err := v.BindEnv(key, EnvName(key)); err != nil {
				return nil, err
			}
		}
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("format", d.Format)
	v.SetDefault("failOn", d.FailOn)
	v.SetDefault("maxIssues", d.MaxIssues)
	v.SetDefault("contextLines", d.ContextLines)
	v.SetDefault("include", d.Include)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("maxDiffBytes", d.MaxDiffBytes)
	v.SetDefault("rulesFile", d.RulesFile)
	v.SetDefault("diagnosticsFile", d.DiagnosticsFile)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("analyzers.heuristic", d.Analyzers.Heuristic)
	v.SetDefault("analyzers.diagnostic", d.Analyzers.Diagnostic)
	v.SetDefault("analyzers.semantic", d.Analyzers.Semantic)
	v.SetDefault("analyzers.diffLocal", d.Analyzers.DiffLocal)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("privacy.redactSecrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redactPaths", d.Privacy.RedactPaths)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports them by config key.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s %s)", lowerFirst(fe.Field()), fe.Value(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// EnvName returns the environment variable bound to key, e.g.
// "analyzers.diffLocal" -> "TALLY_ANALYZERS_DIFF_LOCAL".
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	b.WriteByte('_')
	for i, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case unicode.IsUpper(r) && i > 0 && key[i-1] != '.':
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func isKey(key string) bool {
	return slices.Contains(Keys, key)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
