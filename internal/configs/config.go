package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	kerrors "github.com/ethan-huo/env/internal/errors"

	"github.com/spf13/viper"
)

// Environment names accepted by -e.
const (
	EnvDev  = "dev"
	EnvProd = "prod"
	EnvAll  = "all"
)

// Defaults applied to missing fields.
const (
	DefaultDevFile        = ".env.development"
	DefaultProdFile       = ".env.production"
	DefaultKeysFile       = ".env.keys"
	DefaultSchema         = "valibot"
	DefaultRunner         = "npx"
	DefaultWranglerConfig = "./wrangler.jsonc"

	// ConfigName is the base name searched for in the working directory.
	ConfigName = "env.config"
)

// DefaultPublicPrefixes mark variables that are safe to expose to clients.
var DefaultPublicPrefixes = []string{"VITE_", "PUBLIC_"}

// Config is the project configuration read from env.config.{toml,yaml,json}.
type Config struct {
	EnvFiles EnvFiles `mapstructure:"envFiles"`
	Typegen  *Typegen `mapstructure:"typegen"`
	Sync     *Sync    `mapstructure:"sync"`

	// Path is the file the config was read from, empty for defaults.
	Path string `mapstructure:"-"`
}

// EnvFiles locates the env and keys files.
type EnvFiles struct {
	Dev  string `mapstructure:"dev"`
	Prod string `mapstructure:"prod"`
	Keys string `mapstructure:"keys"`
}

// Typegen configures typed accessor generation.
type Typegen struct {
	Output       string   `mapstructure:"output"`
	Schema       string   `mapstructure:"schema"`
	PublicPrefix []string `mapstructure:"publicPrefix"`
}

// Sync configures the remote targets.
type Sync struct {
	// Links are directories that receive a .env.local symlink.
	Links []string `mapstructure:"links"`

	// Runner is the package runner that starts the convex and wrangler CLIs.
	Runner string `mapstructure:"runner"`

	// Timeout bounds each remote CLI invocation. Zero disables the limit.
	Timeout time.Duration `mapstructure:"timeout"`

	Convex   *ConvexTarget    `mapstructure:"convex"`
	Wrangler []WranglerTarget `mapstructure:"wrangler"`
}

// ConvexTarget configures the Convex deployment sync.
type ConvexTarget struct {
	Exclude []string `mapstructure:"exclude"`
}

// WranglerTarget configures one Cloudflare Worker.
type WranglerTarget struct {
	Config  string   `mapstructure:"config"`
	Exclude []string `mapstructure:"exclude"`

	// EnvMapping maps dev/prod to Wrangler environment names.
	EnvMapping map[string]string `mapstructure:"envMapping"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the config file at path, or searches the working directory
// for env.config.{toml,yaml,yml,json} when path is empty. A missing file
// found by search yields the defaults; a missing explicit path is an error.
// ENV_ prefixed environment variables override file values, for example
// ENV_ENVFILES_DEV.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("envFiles.dev", DefaultDevFile)
	v.SetDefault("envFiles.prod", DefaultProdFile)
	v.SetDefault("envFiles.keys", DefaultKeysFile)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, err)
	}
	cfg.Path = v.ConfigFileUsed()
	cfg.keepEmptyTables(v)
	cfg.applyDefaults()

	if problems := cfg.Validate(); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return nil, fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return cfg, nil
}

// keepEmptyTables restores sections that are present in the file but have
// no keys. Viper drops empty maps when flattening, yet an empty table still
// enables its target with all defaults.
func (c *Config) keepEmptyTables(v *viper.Viper) {
	if c.Typegen == nil && v.InConfig("typegen") {
		c.Typegen = &Typegen{}
	}
	if !v.InConfig("sync") {
		return
	}
	if c.Sync == nil {
		c.Sync = &Sync{}
	}
	if c.Sync.Convex == nil && v.InConfig("sync.convex") {
		c.Sync.Convex = &ConvexTarget{}
	}
	if len(c.Sync.Wrangler) == 0 {
		if _, ok := v.Get("sync.wrangler").(map[string]interface{}); ok {
			c.Sync.Wrangler = []WranglerTarget{{}}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.EnvFiles.Dev == "" {
		c.EnvFiles.Dev = DefaultDevFile
	}
	if c.EnvFiles.Prod == "" {
		c.EnvFiles.Prod = DefaultProdFile
	}
	if c.EnvFiles.Keys == "" {
		c.EnvFiles.Keys = DefaultKeysFile
	}

	if c.Typegen != nil {
		if c.Typegen.Schema == "" {
			c.Typegen.Schema = DefaultSchema
		}
		if c.Typegen.PublicPrefix == nil {
			c.Typegen.PublicPrefix = append([]string(nil), DefaultPublicPrefixes...)
		}
	}

	if c.Sync != nil {
		if c.Sync.Runner == "" {
			c.Sync.Runner = DefaultRunner
		}
		for i := range c.Sync.Wrangler {
			if c.Sync.Wrangler[i].Config == "" {
				c.Sync.Wrangler[i].Config = DefaultWranglerConfig
			}
		}
	}
}

// EnvFilePath returns the env file for "dev" or "prod".
func (c *Config) EnvFilePath(env string) (string, error) {
	switch env {
	case EnvDev:
		return c.EnvFiles.Dev, nil
	case EnvProd:
		return c.EnvFiles.Prod, nil
	default:
		return "", fmt.Errorf("%w: %q", kerrors.ErrUnknownEnv, env)
	}
}

// KeysPath returns the keys file path.
func (c *Config) KeysPath() string {
	return c.EnvFiles.Keys
}

// PublicPrefixes returns the configured public prefixes or the defaults.
func (c *Config) PublicPrefixes() []string {
	if c.Typegen != nil && c.Typegen.PublicPrefix != nil {
		return c.Typegen.PublicPrefix
	}
	return DefaultPublicPrefixes
}

// HasTargets reports whether sync or typegen is configured.
func (c *Config) HasTargets() bool {
	return c.Sync != nil || c.Typegen != nil
}

// ResolveEnvs expands an -e value into the environments to process, in
// processing order.
func ResolveEnvs(env string) ([]string, error) {
	switch env {
	case EnvDev, EnvProd:
		return []string{env}, nil
	case EnvAll:
		return []string{EnvDev, EnvProd}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want dev, prod or all)", kerrors.ErrUnknownEnv, env)
	}
}
