// Package config loads settings for the tokenindex command from defaults,
// an optional config file, TOKENINDEX_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tamirms/tokenindex"
	"github.com/tamirms/tokenindex/vocab"
)

// EnvPrefix prefixes every environment variable; "index.grow_by" is read
// from TOKENINDEX_INDEX_GROW_BY.
const EnvPrefix = "TOKENINDEX"

// Config holds all configuration for the command.
type Config struct {
	Vocab VocabConfig `mapstructure:"vocab"`
	Index IndexConfig `mapstructure:"index"`
	Log   LogConfig   `mapstructure:"log"`
}

// VocabConfig describes the vocabulary file.
type VocabConfig struct {
	Path            string `mapstructure:"path"`
	Latin1          bool   `mapstructure:"latin1"`
	RequireChecksum bool   `mapstructure:"require_checksum"`
}

// IndexConfig holds index build settings.
type IndexConfig struct {
	CaseSensitive bool   `mapstructure:"case_sensitive"`
	MaxCapacity   int    `mapstructure:"max_capacity"`
	GrowBy        int    `mapstructure:"grow_by"`
	Mutable       bool   `mapstructure:"mutable"`
	Backend       string `mapstructure:"backend"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"vocab":            "vocab.path",
	"latin1":           "vocab.latin1",
	"require-checksum": "vocab.require_checksum",
	"case-sensitive":   "index.case_sensitive",
	"max-capacity":     "index.max_capacity",
	"grow-by":          "index.grow_by",
	"mutable":          "index.mutable",
	"backend":          "index.backend",
	"log-level":        "log.level",
}

// RegisterFlags adds the command's flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (yaml, toml or json)")
	fs.StringP("vocab", "f", "", "vocabulary file")
	fs.Bool("latin1", false, "transcode the vocabulary to ISO-8859-1")
	fs.Bool("require-checksum", false, "reject vocabularies without a checksum trailer")
	fs.Bool("case-sensitive", false, "match keys case-sensitively")
	fs.Int("max-capacity", -1, "row ceiling for a mutable index, -1 for none")
	fs.Int("grow-by", tokenindex.DefaultGrowBy, "rows added when a mutable index grows, 0 to disable")
	fs.Bool("mutable", false, "build a mutable index")
	fs.String("backend", tokenindex.BackendAuto.String(), "backend: auto, ternary, array or tree")
	fs.String("log-level", zerolog.InfoLevel.String(), "log level")
}

// Load reads the configuration. fs may be nil; otherwise it must have been
// set up by RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vocab.path", "")
	v.SetDefault("vocab.latin1", false)
	v.SetDefault("vocab.require_checksum", false)

	v.SetDefault("index.case_sensitive", false)
	v.SetDefault("index.max_capacity", -1)
	v.SetDefault("index.grow_by", tokenindex.DefaultGrowBy)
	v.SetDefault("index.mutable", false)
	v.SetDefault("index.backend", tokenindex.BackendAuto.String())

	v.SetDefault("log.level", zerolog.InfoLevel.String())
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Vocab.Path == "" {
		errs = append(errs, errors.New("vocab.path is required"))
	}
	if c.Index.MaxCapacity < -1 {
		errs = append(errs, fmt.Errorf("index.max_capacity must be >= -1, got %d", c.Index.MaxCapacity))
	}
	if c.Index.GrowBy < 0 {
		errs = append(errs, fmt.Errorf("index.grow_by must be >= 0, got %d", c.Index.GrowBy))
	}
	if _, err := tokenindex.ParseBackend(c.Index.Backend); err != nil {
		errs = append(errs, fmt.Errorf("index.backend: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// VocabOptions returns the vocabulary parse options.
func (c *Config) VocabOptions() []vocab.Option {
	var opts []vocab.Option
	if c.Vocab.Latin1 {
		opts = append(opts, vocab.Latin1())
	}
	if c.Vocab.RequireChecksum {
		opts = append(opts, vocab.RequireChecksum())
	}
	return opts
}

// BuildOptions returns the index build options. Call Validate first.
func (c *Config) BuildOptions(logger zerolog.Logger) []tokenindex.BuildOption {
	backend, _ := tokenindex.ParseBackend(c.Index.Backend)
	return []tokenindex.BuildOption{
		tokenindex.CaseSensitive(c.Index.CaseSensitive),
		tokenindex.WithMaxCapacity(c.Index.MaxCapacity),
		tokenindex.WithGrowBy(c.Index.GrowBy),
		tokenindex.WithBackend(backend),
		tokenindex.WithLogger(logger),
	}
}
