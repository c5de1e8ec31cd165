package manifest

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crateman/pkg/config"
	"github.com/matzehuels/crateman/pkg/observability"
	"github.com/matzehuels/crateman/pkg/targets"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// Options configures a resolution pass. The zero value resolves against
// the local filesystem with the default configuration.
type Options struct {
	// Config supplies registries, profile overrides and the unstable
	// capability policy. Nil means config.Default in the working directory.
	Config *config.Config

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger

	// Loader reads workspace root manifests. Nil means workspace.FileLoader.
	Loader workspace.Loader

	// Finder locates the workspace root of a member that does not name it.
	// Nil means workspace.FSRootFinder.
	Finder workspace.RootFinder

	// Inferrer produces build targets. Nil means targets.FSInferrer.
	Inferrer targets.Inferrer

	// Hooks receives resolution events. Nil means observability.Resolve().
	Hooks observability.ResolveHooks

	// StrictDependencySources makes a dependency without a version, path
	// or git repository an error. The configuration can also enable it.
	StrictDependencySources bool
}

func (o *Options) setDefaults() {
	if o.Config == nil {
		cwd, _ := os.Getwd()
		o.Config = config.Default(cwd)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Loader == nil {
		o.Loader = workspace.FileLoader{}
	}
	if o.Finder == nil {
		o.Finder = workspace.FSRootFinder{}
	}
	if o.Inferrer == nil {
		o.Inferrer = targets.FSInferrer{}
	}
	if o.Hooks == nil {
		o.Hooks = observability.Resolve()
	}
}

func (o *Options) strict() bool {
	return o.StrictDependencySources || o.Config.StrictDependencySources()
}
