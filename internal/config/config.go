// Package config loads application settings from flag defaults, an optional
// YAML file, TAROT_* environment variables and explicitly set flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load. Underscores
// after the prefix separate key levels: TAROT_DB_PATH sets db.path.
const EnvPrefix = "TAROT_"

// Config holds all configuration values for the application.
type Config struct {
	DB   DBConfig   `koanf:"db"`
	Log  LogConfig  `koanf:"log"`
	HTTP HTTPConfig `koanf:"http"`
	Deck DeckConfig `koanf:"deck"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Pretty bool   `koanf:"pretty"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// DeckConfig selects the default deck and where extra decks come from.
type DeckConfig struct {
	Default string   `koanf:"default" validate:"required"`
	Dir     string   `koanf:"dir"`
	Repos   []string `koanf:"repos" validate:"dive,required"`
	Cache   string   `koanf:"cache" validate:"required"`

	// Pinned reports whether Default was set by the file, the environment
	// or an explicit --deck flag rather than by the flag default. A pinned
	// deck wins over stored sessions and the active deck setting.
	Pinned bool `koanf:"-"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"db":         "db.path",
	"log-level":  "log.level",
	"log-pretty": "log.pretty",
	"addr":       "http.addr",
	"deck":       "deck.default",
	"deck-dir":   "deck.dir",
	"deck-repo":  "deck.repos",
	"deck-cache": "deck.cache",
}

// ConfigFlag is the name of the flag holding the config file path.
const ConfigFlag = "config"

// RegisterFlags adds every configuration flag, with its default, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFlag, "", "path to a YAML config file")
	fs.String("db", "tarottimer.db", "path to the SQLite database file")
	fs.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	fs.Bool("log-pretty", false, "human-readable console logs")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("deck", "classic", "default deck id")
	fs.String("deck-dir", "", "directory of YAML deck definitions")
	fs.StringSlice("deck-repo", nil, "git repository of deck definitions (repeatable)")
	fs.String("deck-cache", "repos", "directory where deck repositories are cloned")
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load builds a Config from fs (which must have been set up with
// RegisterFlags and parsed), the config file named by the config flag, and
// the environment, then validates it.
func Load(flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	path, err := flags.GetString(ConfigFlag)
	if err != nil {
		return Config{}, fmt.Errorf("read config flag: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	pinned := k.Exists("deck.default") || flags.Changed("deck")

	// Unchanged flags only fill keys that are still missing.
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Deck.Pinned = pinned
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}
