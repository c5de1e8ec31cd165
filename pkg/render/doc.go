// Package render draws resolved manifests as node-link diagrams.
//
// A package becomes the root node with one edge per direct dependency.
// Edges carry the dependency kind and, for platform-specific dependencies,
// the platform expression. Replacements and patches hang off the root as
// dashed edges. A virtual manifest renders its workspace member globs.
//
//	dot := render.ToDOT(res, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(svg)
//
// SVG rendering runs Graphviz in-process via [github.com/goccy/go-graphviz].
// PDF and PNG conversion shells out to rsvg-convert from librsvg.
package render
