package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/MimeLyc/comic-packer/internal/lang"
	"github.com/MimeLyc/comic-packer/pkg/icron"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "COMICPACKER_"

// Config holds the packer settings. Values come from COMICPACKER_* variables,
// optionally loaded from a .env file first, and command-line flags override
// them.
//
// Environment Variables:
// - COMICPACKER_INPUT_PATH: batch input directory (default: ./ComicPackerInput)
// - COMICPACKER_OUTPUT_DIR: output directory (default: ./ComicPackerOutput)
// - COMICPACKER_LANGUAGE: LanguageISO code or "auto" (default: zh-CN)
// - COMICPACKER_DELETE_ORIGINAL: remove sources after packing (default: false)
// - COMICPACKER_EXTRA_PARAMS: key="value" metadata overrides
// - COMICPACKER_WORKERS: items converted concurrently (default: 1)
// - COMICPACKER_HISTORY_DB: SQLite history file; empty disables history
// - COMICPACKER_CRON: watch schedule (default: */30 * * * *)
// - COMICPACKER_TMP_DIR: staging root for archives (default: system temp)
// - COMICPACKER_LOG_LEVEL: debug, info, warn or error (default: info)
// - COMICPACKER_LOG_FILE: write logs to this file instead of stdout
// - COMICPACKER_VERBOSE: shorthand for LOG_LEVEL=debug
type Config struct {
	InputPath      string `env:"INPUT_PATH" envDefault:"./ComicPackerInput"`
	OutputDir      string `env:"OUTPUT_DIR" envDefault:"./ComicPackerOutput"`
	Language       string `env:"LANGUAGE" envDefault:"zh-CN"`
	DeleteOriginal bool   `env:"DELETE_ORIGINAL" envDefault:"false"`
	ExtraParams    string `env:"EXTRA_PARAMS"`
	Workers        int    `env:"WORKERS" envDefault:"1"`
	HistoryDB      string `env:"HISTORY_DB"`
	CronExpr       string `env:"CRON" envDefault:"*/30 * * * *"`
	TmpDir         string `env:"TMP_DIR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	Verbose  bool   `env:"VERBOSE" envDefault:"false"`
}

// Option is a function type for configuring Config
type Option func(*Config)

func WithOutputDir(dir string) Option {
	return func(c *Config) { c.OutputDir = dir }
}

func WithLanguage(code string) Option {
	return func(c *Config) { c.Language = code }
}

// Load reads the given .env files (".env" when none are named; missing files
// are ignored), parses the environment and applies opts. It does not
// validate; call Validate once flags have been applied.
func Load(dotenvFiles []string, opts ...Option) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

// Validate checks the fields that can be wrong independently of the
// filesystem. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if !lang.Valid(c.Language) {
		errs = append(errs, fmt.Errorf("invalid language %q", c.Language))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.CronExpr != "" {
		if err := icron.Validate(c.CronExpr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EffectiveLogLevel is "debug" when Verbose is set, LogLevel otherwise.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}
