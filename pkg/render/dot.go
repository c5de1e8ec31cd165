package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/manifest"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds version requirements, sources and features to the
	// dependency labels. When false, only the name is shown.
	Detailed bool

	// Kinds restricts the drawn dependencies to the given kinds. Empty
	// draws all of them.
	Kinds []dependency.Kind
}

func (o Options) wants(k dependency.Kind) bool {
	return len(o.Kinds) == 0 || slices.Contains(o.Kinds, k)
}

// ToDOT converts a resolved manifest to Graphviz DOT source.
func ToDOT(res *manifest.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	switch {
	case res.Package != nil:
		writePackage(&buf, res.Package, opts)
	case res.Virtual != nil:
		writeVirtual(&buf, res.Virtual, opts)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writePackage(buf *bytes.Buffer, p *manifest.Package, opts Options) {
	root := p.Name + " v" + p.Version
	fmt.Fprintf(buf, "  %q [label=%q, fillcolor=lightblue];\n", root, root)

	seen := map[string]bool{}
	for _, d := range p.Dependencies {
		if !opts.wants(d.Kind) {
			continue
		}
		id := d.NameInToml()
		if !seen[id] {
			seen[id] = true
			fmt.Fprintf(buf, "  %q [%s];\n", id, strings.Join(depAttrs(d, opts.Detailed), ", "))
		}
		fmt.Fprintf(buf, "  %q -> %q [%s];\n", root, id, strings.Join(edgeAttrs(d), ", "))
	}
	writeOverrides(buf, root, p.Replace, p.Patch)
}

func writeVirtual(buf *bytes.Buffer, v *manifest.Virtual, _ Options) {
	const root = "workspace"
	fmt.Fprintf(buf, "  %q [label=%q, fillcolor=lightblue];\n", root, "[workspace]")
	if v.Workspace != nil {
		for _, m := range v.Workspace.Members {
			fmt.Fprintf(buf, "  %q [label=%q, style=\"rounded,filled,dashed\"];\n", "member:"+m, m)
			fmt.Fprintf(buf, "  %q -> %q;\n", root, "member:"+m)
		}
	}
	writeOverrides(buf, root, v.Replace, v.Patch)
}

func writeOverrides(buf *bytes.Buffer, root string, replace []manifest.Replacement, patch map[string][]*dependency.Dependency) {
	for _, r := range replace {
		id := "replace:" + r.Spec.String()
		fmt.Fprintf(buf, "  %q [label=%q, fillcolor=lightyellow];\n", id, r.Spec.Name+" = "+r.Dependency.Source.String())
		fmt.Fprintf(buf, "  %q -> %q [style=dashed, label=\"replace\"];\n", root, id)
	}
	for _, url := range slices.Sorted(maps.Keys(patch)) {
		for _, d := range patch[url] {
			id := "patch:" + url + "#" + d.Name
			fmt.Fprintf(buf, "  %q [label=%q, fillcolor=lightyellow];\n", id, d.Name+"\n"+url)
			fmt.Fprintf(buf, "  %q -> %q [style=dashed, label=\"patch\"];\n", root, id)
		}
	}
}

func depAttrs(d *dependency.Dependency, detailed bool) []string {
	label := d.NameInToml()
	if detailed {
		parts := []string{label}
		if d.ExplicitNameInToml != "" {
			parts = append(parts, "package: "+d.Name)
		}
		if d.VersionReq != "" {
			parts = append(parts, "req: "+d.VersionReq)
		}
		parts = append(parts, "source: "+d.Source.Kind().String())
		if len(d.Features) > 0 {
			parts = append(parts, "features: "+strings.Join(d.Features, ", "))
		}
		label = strings.Join(parts, "\n")
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if d.Optional {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

func edgeAttrs(d *dependency.Dependency) []string {
	var attrs []string
	switch d.Kind {
	case dependency.Development:
		attrs = append(attrs, "style=dashed")
	case dependency.Build:
		attrs = append(attrs, "style=dotted")
	}
	var label []string
	if d.Kind != dependency.Normal {
		label = append(label, d.Kind.String())
	}
	if d.Platform != nil {
		label = append(label, d.Platform.String())
	}
	if len(label) > 0 {
		attrs = append(attrs, fmt.Sprintf("label=%q", strings.Join(label, " ")))
	}
	if len(attrs) == 0 {
		attrs = append(attrs, "color=black")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
