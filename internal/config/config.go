// Package config resolves the sitecms configuration from defaults, JSONC
// config files, the environment and command-line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// Error variables for configuration.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".sitecms.json"

// Environment variables read by [Load].
const (
	EnvDataDir     = "SITECMS_DATA_DIR"
	EnvListen      = "SITECMS_LISTEN"
	EnvLogLevel    = "SITECMS_LOG_LEVEL"
	EnvLogFormat   = "SITECMS_LOG_FORMAT"
	EnvCORSOrigins = "SITECMS_CORS_ORIGINS"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir       string   `json:"data_dir"`
	Listen        string   `json:"listen"`
	CORSOrigins   []string `json:"cors_origins,omitempty"`
	CacheTTL      Duration `json:"cache_ttl,omitempty"`
	LockTimeout   Duration `json:"lock_timeout,omitempty"`
	RequiredPages []string `json:"required_pages,omitempty"`
	ContactPage   string   `json:"contact_page,omitempty"`
	RoutesDir     string   `json:"routes_dir,omitempty"`
	LogLevel      string   `json:"log_level,omitempty"`
	LogFormat     string   `json:"log_format,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"`
	DataDirAbs   string `json:"-"`
	RoutesDirAbs string `json:"-"` // empty if RoutesDir is unset

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
	DotEnv  string
}

// Duration is a [time.Duration] written as a Go duration string ("2s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string

	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	*d = Duration(parsed)

	return nil
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir:   "data",
		Listen:    "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// globalPath returns $XDG_CONFIG_HOME/sitecms/config.json, falling back to
// ~/.config/sitecms/config.json. Empty if neither variable is set.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "sitecms", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "sitecms", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value
	ListenOverride  string            // --listen flag value
	Env             map[string]string // environment, see [Environ]
}

// Load resolves the configuration with the following precedence (highest
// wins):
//  1. Defaults
//  2. Global user config
//  3. Project config (.sitecms.json), or the explicit ConfigPath instead
//  4. SITECMS_* environment variables
//  5. Flag overrides
//
// Paths in the result are resolved against the working directory.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}

		workDir = abs
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		globalCfg, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, globalCfg)
			cfg.Sources.Global = path
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		projectPath, mustExist = resolve(workDir, input.ConfigPath), true
	}

	projectCfg, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, projectCfg)
		cfg.Sources.Project = projectPath
	}

	cfg = merge(cfg, fromEnv(input.Env))
	cfg.Sources.DotEnv = input.Env[dotEnvSourceKey]

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	if input.ListenOverride != "" {
		cfg.Listen = input.ListenOverride
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.DataDirAbs = resolve(workDir, cfg.DataDir)

	if cfg.RoutesDir != "" {
		cfg.RoutesDirAbs = resolve(workDir, cfg.RoutesDir)
	}

	return cfg, nil
}

func resolve(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(workDir, path)
}

// loadFile reads one config file. A missing optional file is not an error.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// "required_pages": [] means no required pages, unlike an absent key.
	var raw map[string]json.RawMessage

	_ = json.Unmarshal(standardized, &raw)

	if _, ok := raw["required_pages"]; ok && cfg.RequiredPages == nil {
		cfg.RequiredPages = []string{}
	}

	if v, ok := raw["data_dir"]; ok && string(v) == `""` {
		return Config{}, errors.New("data_dir cannot be empty")
	}

	return cfg, nil
}

func fromEnv(env map[string]string) Config {
	cfg := Config{
		DataDir:   env[EnvDataDir],
		Listen:    env[EnvListen],
		LogLevel:  env[EnvLogLevel],
		LogFormat: env[EnvLogFormat],
	}

	if origins := env[EnvCORSOrigins]; origins != "" {
		for o := range strings.SplitSeq(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func merge(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.Listen != "" {
		base.Listen = overlay.Listen
	}

	if overlay.CORSOrigins != nil {
		base.CORSOrigins = overlay.CORSOrigins
	}

	if overlay.CacheTTL != 0 {
		base.CacheTTL = overlay.CacheTTL
	}

	if overlay.LockTimeout != 0 {
		base.LockTimeout = overlay.LockTimeout
	}

	if overlay.RequiredPages != nil {
		base.RequiredPages = overlay.RequiredPages
	}

	if overlay.ContactPage != "" {
		base.ContactPage = overlay.ContactPage
	}

	if overlay.RoutesDir != "" {
		base.RoutesDir = overlay.RoutesDir
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}

	return base
}

func validate(cfg Config) error {
	var errs []error

	if cfg.DataDir == "" {
		errs = append(errs, errors.New("data_dir cannot be empty"))
	}

	if cfg.Listen == "" {
		errs = append(errs, errors.New("listen cannot be empty"))
	}

	if cfg.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock_timeout must be positive, got %s", time.Duration(cfg.LockTimeout)))
	}

	if cfg.ContactPage != "" && !strings.HasPrefix(cfg.ContactPage, "/") {
		errs = append(errs, fmt.Errorf("contact_page %q must start with /", cfg.ContactPage))
	}

	for _, slug := range cfg.RequiredPages {
		if !strings.HasPrefix(slug, "/") {
			errs = append(errs, fmt.Errorf("required page %q must start with /", slug))
		}
	}

	_, err := parseLevel(cfg.LogLevel)
	if err != nil {
		errs = append(errs, err)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", cfg.LogFormat))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
}
