// Package config provides the configuration a resolution pass runs under:
// the working directory, alternative registries, configuration-level
// profile overrides, unstable-capability policy and strictness knobs.
//
// Values come from an optional TOML file and CRATEMAN_* environment
// variables, layered with viper:
//
//	[registries.internal]
//	index = "https://registry.example.com/index"
//
//	[unstable]
//	allow = true
//	allowed-features = ["workspace-inheritance"]
//
//	[resolve]
//	strict-dependency-sources = false
//
//	[profile.release]
//	opt-level = "s"
//
// CRATEMAN_REGISTRIES_INTERNAL_INDEX overrides the index of the `internal`
// registry; CRATEMAN_UNSTABLE_ALLOW and
// CRATEMAN_RESOLVE_STRICT_DEPENDENCY_SOURCES override the policy keys.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/profile"
	"github.com/matzehuels/crateman/pkg/surface"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CRATEMAN"

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = EnvPrefix + "_CONFIG"

const (
	keyUnstableAllow   = "unstable.allow"
	keyAllowedFeatures = "unstable.allowed-features"
	keyStrictSources   = "resolve.strict-dependency-sources"
)

// Config is the configuration of one or more resolution passes. It is
// read-only after [Load] and safe for concurrent use.
type Config struct {
	cwd      string
	path     string
	v        *viper.Viper
	profiles profile.Table
	warnings []string
}

// Options controls [Load].
type Options struct {
	// Cwd is the working directory. Empty means os.Getwd.
	Cwd string
	// Path is the config file. Empty means $CRATEMAN_CONFIG, and no file
	// when that is unset too.
	Path string
}

// Default returns a configuration without a file, still honouring
// environment overrides.
func Default(cwd string) *Config {
	return &Config{cwd: cwd, v: newViper()}
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to determine the working directory")
		}
		cwd = wd
	}
	c := Default(cwd)

	path := opts.Path
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return c, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if err := c.readFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyUnstableAllow, false)
	v.SetDefault(keyStrictSources, false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// readFile parses the config file and merges it into viper. The raw tree
// is kept for [profile] tables so package specs keep their case.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to read config file `%s`", path)
	}
	doc, err := surface.Parse(data)
	if err != nil {
		return errors.Context(err, "could not parse config file `%s`", path)
	}
	if err := c.v.MergeConfigMap(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to merge config file `%s`", path)
	}
	c.path = path

	raw, ok := doc["profile"]
	if !ok {
		return nil
	}
	tables, ok := raw.(map[string]any)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "`profile` in config file `%s` must be a table", path)
	}
	c.profiles = make(profile.Table, len(tables))
	for name, t := range tables {
		pt, ok := t.(map[string]any)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "`profile.%s` in config file `%s` must be a table", name, path)
		}
		p, unused, err := surface.DecodeProfile("profile."+name, pt)
		if err != nil {
			return errors.Context(err, "error in config file `%s`", path)
		}
		for _, k := range unused {
			c.warnings = append(c.warnings, "unused config key `"+k+"` in `"+path+"`")
		}
		c.profiles[name] = p
	}
	return nil
}

// Cwd returns the working directory.
func (c *Config) Cwd() string { return c.cwd }

// Path returns the config file that was read, or "".
func (c *Config) Path() string { return c.path }

// Warnings returns findings from reading the config file.
func (c *Config) Warnings() []string { return c.warnings }

// NormalizePath makes p absolute against the working directory and
// removes `.` and `..` components lexically.
func (c *Config) NormalizePath(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.cwd, p)
	}
	return filepath.Clean(p)
}

// RegistryIndex returns the index URL of a named registry.
func (c *Config) RegistryIndex(name string) (string, error) {
	if err := errors.ValidatePackageName(name, "registry name"); err != nil {
		return "", err
	}
	index := c.v.GetString("registries." + name + ".index")
	if index == "" {
		return "", errors.New(errors.ErrCodeMissingRequirement, "no index found for registry: `%s`", name)
	}
	if _, err := errors.ValidateURL(index); err != nil {
		return "", errors.Context(err, "invalid index URL for registry `%s`", name)
	}
	return index, nil
}

// Registries returns the names of the registries defined in the file.
func (c *Config) Registries() []string {
	var names []string
	for name := range c.v.GetStringMap("registries") {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns the configuration-level profile overrides.
func (c *Config) Profiles() profile.Table { return c.profiles }

// Unstable returns the unstable-capability policy.
func (c *Config) Unstable() features.Env {
	env := features.Env{AllowUnstable: c.v.GetBool(keyUnstableAllow)}
	if c.v.IsSet(keyAllowedFeatures) {
		env.AllowedFeatures = c.v.GetStringSlice(keyAllowedFeatures)
		if env.AllowedFeatures == nil {
			env.AllowedFeatures = []string{}
		}
	}
	return env
}

// StrictDependencySources reports whether a dependency declared without a
// version, path or git repository is an error rather than a warning.
func (c *Config) StrictDependencySources() bool {
	return c.v.GetBool(keyStrictSources)
}
