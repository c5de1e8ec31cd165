// Package cli implements the crateman command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateman/pkg/buildinfo"
	"github.com/matzehuels/crateman/pkg/config"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/manifest"
	"github.com/matzehuels/crateman/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "crateman"

	// manifestName is the file looked up when a directory is given.
	manifestName = "Cargo.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string // --config
	strict     bool   // --strict
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Crateman resolves Cargo.toml manifests",
		Long:         `Crateman reads Cargo.toml manifests, applies workspace inheritance, and reports the fully resolved package or workspace description.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVar(&c.strict, "strict", false, "treat dependencies without a source as errors")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.profilesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Resolution Helpers
// =============================================================================

// manifestOptions loads the configuration and builds resolver options.
func (c *CLI) manifestOptions() (manifest.Options, error) {
	cfg, err := config.Load(config.Options{Path: c.configPath})
	if err != nil {
		return manifest.Options{}, err
	}
	for _, w := range cfg.Warnings() {
		c.Logger.Warn(w)
	}
	if p := cfg.Path(); p != "" {
		c.Logger.Debug("loaded configuration", "path", p)
	}
	return manifest.Options{
		Config:                  cfg,
		Logger:                  c.Logger,
		StrictDependencySources: c.strict,
	}, nil
}

// manifestPath turns a command argument into an absolute manifest path.
// Directories resolve to the Cargo.toml inside them.
func manifestPath(arg string) (string, error) {
	if arg == "" {
		arg = manifestName
	}
	p, err := filepath.Abs(arg)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid manifest path `%s`", arg)
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		p = filepath.Join(p, manifestName)
	}
	return p, nil
}

// readManifest resolves the manifest at path as a local package.
func readManifest(path string, opts manifest.Options) (*manifest.Result, error) {
	id, err := source.ForPath(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return manifest.Read(path, id, opts)
}

// firstArg returns args[0], or the empty string.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
