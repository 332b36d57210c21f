package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/engine"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/logger"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MTPSYNC_"

const (
	BackendGio = "gio"
	BackendS3  = "s3"
)

// Config holds the settings of a run. Environment values are the defaults;
// command line flags override them.
type Config struct {
	// Remote base location, e.g. mtp://tolino/Books/ or s3://bucket/prefix/.
	Remote string `env:"REMOTE"`

	Backend         string `env:"BACKEND" envDefault:"gio"`
	GioBinary       string `env:"GIO_BINARY" envDefault:"gio"`
	OverwriteDelete bool   `env:"OVERWRITE_DELETE" envDefault:"false"`

	// AWS settings for the s3 backend.
	Profile string `env:"PROFILE"`
	Region  string `env:"REGION"`

	Include   []string `env:"INCLUDE" envSeparator:"," envDefault:"*.epub,*.pdf"`
	Exclude   []string `env:"EXCLUDE" envSeparator:","`
	Recursive bool     `env:"RECURSIVE" envDefault:"false"`
	Randomize bool     `env:"RANDOMIZE" envDefault:"false"`

	Retries        int           `env:"RETRIES" envDefault:"3"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"5s"`
	CacheBusyDelay time.Duration `env:"CACHE_BUSY_DELAY" envDefault:"10s"`
	SettleDelay    time.Duration `env:"SETTLE_DELAY" envDefault:"7s"`
	VerifyRetries  int           `env:"VERIFY_RETRIES" envDefault:"3"`
	VerifyDelay    time.Duration `env:"VERIFY_DELAY" envDefault:"3s"`
	NoVerify       bool          `env:"NO_VERIFY" envDefault:"false"`

	DryRun         bool   `env:"DRYRUN" envDefault:"false"`
	ResultJSONFile string `env:"RESULT_JSON_FILE"`

	Quiet     bool   `env:"QUIET" envDefault:"false"`
	Verbose   bool   `env:"VERBOSE" envDefault:"false"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads a .env file if present, then parses MTPSYNC_* variables. The
// result is not validated since flags may still change it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks the final settings of a run.
func (c *Config) Validate() error {
	if c.Remote == "" {
		return fmt.Errorf("remote location is required (argument or %sREMOTE)", EnvPrefix)
	}

	switch c.Backend {
	case BackendGio:
	case BackendS3:
		if !strings.HasPrefix(c.Remote, "s3://") {
			return fmt.Errorf("s3 backend needs an s3:// remote, got %q", c.Remote)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendGio, BackendS3)
	}

	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.VerifyRetries < 1 {
		return fmt.Errorf("verify retries must be at least 1, got %d", c.VerifyRetries)
	}

	for name, d := range map[string]time.Duration{
		"retry delay":      c.RetryDelay,
		"cache busy delay": c.CacheBusyDelay,
		"settle delay":     c.SettleDelay,
		"verify delay":     c.VerifyDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}

	if c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Quiet && c.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}
	return nil
}

// EngineConfig returns the explicit configuration value the engine is built
// with.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Executor: executor.Config{
			Base: c.Remote,
			Retry: executor.RetryPolicy{
				MaxAttempts:    c.Retries,
				RetryDelay:     c.RetryDelay,
				CacheBusyDelay: c.CacheBusyDelay,
			},
			Verify: executor.VerifyPolicy{
				MaxAttempts: c.VerifyRetries,
				Delay:       c.VerifyDelay,
			},
			SettleDelay: c.SettleDelay,
		},
		Include:   c.Include,
		Verify:    !c.NoVerify,
		DryRun:    c.DryRun,
		Randomize: c.Randomize,
	}
}

// LoggerOptions returns the logging settings.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Quiet:   c.Quiet,
		Verbose: c.Verbose,
		Format:  c.LogFormat,
	}
}
