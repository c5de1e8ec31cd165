package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/manifest"
	"github.com/matzehuels/crateman/pkg/observability"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	format  string // text, json or yaml
	output  string // output file path (stdout if empty)
	jobs    int    // manifests resolved in parallel
	metrics bool   // print Prometheus metrics to stderr
	deny    bool   // fail on critical warnings
}

// resolved pairs a manifest path with its resolution result.
type resolved struct {
	Path string `json:"path"`
	*manifest.Result
}

func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: formatText, jobs: runtime.NumCPU()}

	cmd := &cobra.Command{
		Use:   "resolve [manifest...]",
		Short: "Resolve manifests and print the result",
		Long: `Resolve one or more manifests and print the resolved package or workspace.

Arguments may be Cargo.toml files or directories containing one. Without
arguments, the Cargo.toml in the current directory is resolved.

Examples:
  crateman resolve                          # ./Cargo.toml
  crateman resolve crates/* --format json   # several manifests in parallel
  crateman resolve --format yaml -o out.yml # write to a file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json or yaml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "manifests resolved in parallel")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print resolution metrics to stderr")
	cmd.Flags().BoolVar(&opts.deny, "deny-critical", false, "fail when a manifest has critical warnings")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, stdout, stderr io.Writer, args []string, opts resolveOpts) error {
	if len(args) == 0 {
		args = []string{""}
	}
	paths := make([]string, len(args))
	for i, arg := range args {
		p, err := manifestPath(arg)
		if err != nil {
			return err
		}
		paths[i] = p
	}

	mopts, err := c.manifestOptions()
	if err != nil {
		return err
	}
	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		mopts.Hooks = observability.NewMetrics(reg)
	}

	prog := newProgress(c.Logger)
	results, err := resolveAll(ctx, paths, mopts, opts.jobs)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d manifests", len(results)))

	critical := 0
	for _, r := range results {
		for _, w := range r.Warnings.Ordinary {
			printWarning(stderr, "%s", w)
		}
		for _, w := range r.Warnings.Critical {
			printError(stderr, "%s", w)
		}
		critical += len(r.Warnings.Critical)
	}

	var data []byte
	if opts.format == formatText {
		var buf strings.Builder
		for _, r := range results {
			writeText(&buf, r)
		}
		data = []byte(buf.String())
	} else {
		var v any = results
		if len(results) == 1 {
			v = results[0]
		}
		if data, err = encode(v, opts.format); err != nil {
			return err
		}
	}
	if err := writeOutput(stdout, opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess(stderr, "Wrote resolved manifests")
		printFile(stderr, opts.output)
	}

	if reg != nil {
		if err := writeMetrics(stderr, reg); err != nil {
			return err
		}
	}
	if opts.deny && critical > 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "%d critical warnings", critical)
	}
	return nil
}

// resolveAll resolves the manifests concurrently, keeping argument order.
// The first failure cancels the remaining passes.
func resolveAll(ctx context.Context, paths []string, opts manifest.Options, jobs int) ([]resolved, error) {
	results := make([]resolved, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := readManifest(path, opts)
			if err != nil {
				return err
			}
			results[i] = resolved{Path: path, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeText prints a human-readable summary of one result.
func writeText(w io.Writer, r resolved) {
	if p := r.Package; p != nil {
		fmt.Fprintln(w, StyleTitle.Render(p.Name+" v"+p.Version))
		printKeyValue(w, "manifest", r.Path)
		printKeyValue(w, "edition", p.Edition)
		if p.RustVersion != "" {
			printKeyValue(w, "rust-version", p.RustVersion)
		}
		if p.Metadata.License != "" {
			printKeyValue(w, "license", p.Metadata.License)
		}
		if len(p.Capabilities) > 0 {
			printKeyValue(w, "features", strings.Join(p.Capabilities, ", "))
		}
		printKeyValue(w, "targets", fmt.Sprint(len(p.Targets)))
		printKeyValue(w, "dependencies", fmt.Sprint(len(p.Dependencies)))
		for _, d := range p.Dependencies {
			line := d.String()
			if d.Kind != dependency.Normal {
				line += " [" + d.Kind.String() + "]"
			}
			if d.Platform != nil {
				line += " for " + d.Platform.String()
			}
			printDetail(w, "%s", line)
		}
		writeOverridesText(w, p.Replace, len(p.Patch))
	}
	if v := r.Virtual; v != nil {
		fmt.Fprintln(w, StyleTitle.Render("[workspace]"))
		printKeyValue(w, "manifest", r.Path)
		printKeyValue(w, "members", strings.Join(v.Workspace.Members, ", "))
		if v.Resolver != "" {
			printKeyValue(w, "resolver", v.Resolver)
		}
		if names := v.Profiles.Names(); len(names) > 0 {
			printKeyValue(w, "profiles", strings.Join(names, ", "))
		}
		writeOverridesText(w, v.Replace, len(v.Patch))
	}
	fmt.Fprintln(w)
}

func writeOverridesText(w io.Writer, replace []manifest.Replacement, patches int) {
	if len(replace) > 0 {
		specs := make([]string, len(replace))
		for i, r := range replace {
			specs[i] = r.Spec.Name + "@" + r.Spec.Version
		}
		sort.Strings(specs)
		printKeyValue(w, "replace", StyleHighlight.Render(strings.Join(specs, ", ")))
	}
	if patches > 0 {
		printKeyValue(w, "patch", fmt.Sprintf("%d sources", patches))
	}
}

// writeMetrics dumps the registry in the Prometheus text format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "gather metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write metrics")
		}
	}
	return nil
}
