package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/features"
	"github.com/matzehuels/crateman/pkg/observability"
	"github.com/matzehuels/crateman/pkg/profile"
	"github.com/matzehuels/crateman/pkg/source"
	"github.com/matzehuels/crateman/pkg/surface"
	"github.com/matzehuels/crateman/pkg/workspace"
)

// Read loads the manifest at path and resolves it. Every error is wrapped
// with the manifest path.
func Read(path string, id source.ID, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to read `%s`", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to read `%s`", path)
	}
	doc, err := surface.Parse(data)
	if err == nil {
		var res *Result
		if res, err = Resolve(doc, path, id, opts); err == nil {
			return res, nil
		}
	}
	return nil, errors.Context(err, "failed to parse manifest at `%s`", path)
}

// Resolve resolves an already parsed manifest document. path locates the
// manifest file; its directory is the package root. A relative path is
// taken from the working directory. id is the source the document comes
// from.
func Resolve(doc map[string]any, path string, id source.ID, opts Options) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to locate `%s`", path)
	}
	path = abs
	opts.setDefaults()
	logger := opts.Logger.With("pass", uuid.NewString())
	logger.Debug("resolving manifest", "path", path, "source", id)

	start := time.Now()
	opts.Hooks.OnResolveStart(path)
	res, err := resolve(doc, path, id, &opts, logger)
	opts.Hooks.OnResolveComplete(path, summarize(res), time.Since(start), err)
	if err != nil {
		logger.Debug("resolution failed", "path", path, "err", err)
		return nil, err
	}
	logger.Debug("resolved manifest",
		"path", path,
		"virtual", res.Virtual != nil,
		"warnings", len(res.Warnings.Ordinary),
		"critical", len(res.Warnings.Critical))
	return res, nil
}

func summarize(res *Result) observability.Result {
	if res == nil {
		return observability.Result{}
	}
	out := observability.Result{
		Virtual:  res.Virtual != nil,
		Warnings: len(res.Warnings.Ordinary),
		Critical: len(res.Warnings.Critical),
	}
	if res.Package != nil {
		out.Dependencies = len(res.Package.Dependencies)
	}
	return out
}

func resolve(doc map[string]any, path string, id source.ID, opts *Options, logger *log.Logger) (*Result, error) {
	if err := checkCapabilityLocation(doc); err != nil {
		return nil, err
	}
	m, unused, err := surface.Decode(doc)
	if err != nil {
		return nil, err
	}

	a := &assembler{
		m:      m,
		path:   path,
		root:   filepath.Dir(path),
		id:     id,
		opts:   opts,
		log:    logger,
		loader: &hookedLoader{inner: opts.Loader, hooks: opts.Hooks, log: logger},
		cx:     &dependency.Context{Root: filepath.Dir(path), SourceID: id, Registries: opts.Config, Strict: opts.strict()},
	}

	res := &Result{}
	if m.Package != nil || m.Project != nil {
		if res.Package, err = a.real(); err != nil {
			return nil, err
		}
	} else if res.Virtual, err = a.virtual(); err != nil {
		return nil, err
	}

	for _, key := range unused {
		a.warn("unused manifest key: %s", key)
		if key == "profiles.debug" || (key == "profiles" && hasDebugProfile(doc)) {
			a.warn("use `[profile.dev]` to configure debug builds")
		}
	}
	if res.Package != nil {
		if err := checkHasTargets(res.Package); err != nil {
			return nil, err
		}
		if err := featureGate(res.Package, a.cx.Features); err != nil {
			return nil, err
		}
	}

	res.NestedPaths = a.cx.NestedPaths
	res.Warnings = Warnings{Ordinary: a.cx.Warnings, Critical: a.critical}
	return res, nil
}

// assembler holds the state of one resolution pass.
type assembler struct {
	m      *surface.Manifest
	path   string // Manifest file
	root   string // Package root directory
	id     source.ID
	opts   *Options
	log    *log.Logger
	loader *hookedLoader
	ws     *workspace.Resolver

	// cx accumulates dependencies, nested paths and ordinary warnings for
	// the whole pass.
	cx       *dependency.Context
	critical []string
}

func (a *assembler) warn(format string, args ...any) {
	a.cx.Warnings = append(a.cx.Warnings, fmt.Sprintf(format, args...))
}

// capabilities validates the document's cargo-features list.
func (a *assembler) capabilities() error {
	feats, err := features.New(a.m.CargoFeatures, a.opts.Config.Unstable(), a.id.IsPath(), &a.cx.Warnings)
	if err != nil {
		return err
	}
	a.cx.Features = feats
	return nil
}

// profiles validates the document profiles and merges the configuration's
// profile overrides over them.
func (a *assembler) profiles() (profile.Table, error) {
	table := profile.Table(a.m.Profiles)
	if err := table.Validate(a.cx.Features, &a.cx.Warnings); err != nil {
		return nil, err
	}
	overrides := a.opts.Config.Profiles()
	if len(overrides) == 0 {
		return table, nil
	}
	if err := overrides.Validate(a.cx.Features, &a.cx.Warnings); err != nil {
		return nil, errors.Context(err, "invalid profile override in `%s`", a.opts.Config.Path())
	}
	a.log.Debug("merging configured profiles", "profiles", overrides.Names())
	return table.Merge(overrides), nil
}

// checkCapabilityLocation rejects cargo-features placed inside [package].
func checkCapabilityLocation(doc map[string]any) error {
	for _, key := range []string{"package", "project"} {
		pkg, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := pkg["cargo-features"]; ok {
			return errors.New(errors.ErrCodeInvalidManifest,
				"cargo-features = %s was found in the wrong location: it should be set at "+
					"the top of Cargo.toml before any tables", renderValue(v))
		}
	}
	return nil
}

// renderValue renders a document value the way it would be written.
func renderValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprintf("%q", e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func hasDebugProfile(doc map[string]any) bool {
	profiles, ok := doc["profiles"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = profiles["debug"]
	return ok
}

func checkHasTargets(p *Package) error {
	for _, t := range p.Targets {
		if !t.IsCustomBuild() {
			return nil
		}
	}
	return errors.New(errors.ErrCodeMissingRequirement,
		"no targets specified in the manifest\n"+
			"either src/lib.rs, src/main.rs, a [lib] section, or [[bin]] section must be present")
}

// featureGate checks the settings that are gated on the assembled package
// as a whole.
func featureGate(p *Package, feats *features.Features) error {
	if p.ImATeapot != nil {
		if err := feats.Require(features.TestDummyUnstable); err != nil {
			return errors.Context(err, "to use this manifest feature you must enable the `%s` feature",
				features.TestDummyUnstable)
		}
	}
	return nil
}

// hookedLoader reports workspace manifest reads to the pass hooks.
type hookedLoader struct {
	inner workspace.Loader
	hooks observability.ResolveHooks
	log   *log.Logger
}

// Load implements workspace.Loader.
func (l *hookedLoader) Load(path string) (*surface.Manifest, error) {
	start := time.Now()
	m, err := l.inner.Load(path)
	elapsed := time.Since(start)
	l.hooks.OnWorkspaceLoad(path, elapsed, err)
	l.log.Debug("loaded workspace manifest", "path", path, "duration", elapsed, "err", err)
	return m, err
}
