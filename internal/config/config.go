// Package config loads trinity's settings: embedded defaults, an optional
// trinity.toml, TRINITY_* environment variables and flag overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stevehiehn/trinity/internal/logging"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "trinity.toml"

// EnvPrefix marks environment overrides. A double underscore separates
// sections: TRINITY_RUNNER__SHELL sets runner.shell.
const EnvPrefix = "TRINITY_"

type Config struct {
	Catalog CatalogConfig `koanf:"catalog" toml:"catalog"`
	Runner  RunnerConfig  `koanf:"runner" toml:"runner"`
	Log     LogConfig     `koanf:"log" toml:"log"`
	State   StateConfig   `koanf:"state" toml:"state"`
	Breaker BreakerConfig `koanf:"breaker" toml:"breaker"`
	Metrics MetricsConfig `koanf:"metrics" toml:"metrics"`
}

type CatalogConfig struct {
	Apps      string `koanf:"apps" toml:"apps"`
	Tweaks    string `koanf:"tweaks" toml:"tweaks"`
	Resources string `koanf:"resources" toml:"resources"`
}

type RunnerConfig struct {
	PackageManager string `koanf:"package_manager" toml:"package_manager"`
	Shell          string `koanf:"shell" toml:"shell"`
	ShellFlag      string `koanf:"shell_flag" toml:"shell_flag"`
}

type LogConfig struct {
	File  string `koanf:"file" toml:"file"`
	Level string `koanf:"level" toml:"level"`
}

type StateConfig struct {
	Dir           string `koanf:"dir" toml:"dir"`
	KeepArtifacts bool   `koanf:"keep_artifacts" toml:"keep_artifacts"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32   `koanf:"consecutive_failures" toml:"consecutive_failures"`
	OpenTimeout         Duration `koanf:"open_timeout" toml:"open_timeout"`
}

type MetricsConfig struct {
	Textfile string `koanf:"textfile" toml:"textfile"`
}

// Duration reads and writes as a Go duration string such as "30s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load builds the configuration. path names a TOML file that must exist;
// when empty, trinity.toml in the working directory is used if present.
// overrides are dotted keys (e.g. "log.level") applied last.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, configErr("failed to load defaults", err)
	}

	// 2. Config file
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, configErr(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, configErr("failed to load env vars", err)
	}

	// 4. Flag overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, configErr("failed to apply overrides", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, configErr("failed to unmarshal configuration", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func postProcess(cfg *Config) error {
	if cfg.Log.File == "" {
		cfg.Log.File = logging.DefaultLogFile()
	}
	if cfg.State.Dir == "" {
		cfg.State.Dir = filepath.Join(xdg.StateHome, "trinity")
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return &trerrors.RunError{
			Type:    trerrors.ConfigError,
			Message: fmt.Sprintf("unknown log level %q", cfg.Log.Level),
			Hint:    "Use one of trace, debug, info, warn, error",
		}
	}
	if cfg.Runner.PackageManager == "" || cfg.Runner.Shell == "" {
		return &trerrors.RunError{
			Type:    trerrors.ConfigError,
			Message: "runner.package_manager and runner.shell must be set",
		}
	}
	return nil
}

// Dump renders cfg as TOML.
func Dump(cfg *Config) ([]byte, error) {
	return gotoml.Marshal(cfg)
}

func configErr(msg string, err error) *trerrors.RunError {
	return trerrors.Wrap(err, trerrors.ConfigError, msg)
}
