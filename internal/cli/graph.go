package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crateman/pkg/dependency"
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/manifest"
	"github.com/matzehuels/crateman/pkg/render"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string  // dot, svg, pdf or png
	output   string  // output file path (stdout if empty)
	detailed bool    // detailed labels
	kinds    string  // comma-separated dependency kinds
	scale    float64 // PNG scale
}

func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT, scale: 2.0}

	cmd := &cobra.Command{
		Use:   "graph [manifest]",
		Short: "Draw the direct dependencies of a manifest",
		Long: `Draw the direct dependencies of a manifest as a node-link diagram.

Examples:
  crateman graph                              # DOT on stdout
  crateman graph --format svg -o deps.svg
  crateman graph --kinds build,dev --detailed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(firstArg(args))
			if err != nil {
				return err
			}
			kinds, err := parseKinds(opts.kinds)
			if err != nil {
				return err
			}
			mopts, err := c.manifestOptions()
			if err != nil {
				return err
			}
			res, err := readManifest(path, mopts)
			if err != nil {
				return err
			}

			data, err := renderGraph(cmd.Context(), res, render.Options{Detailed: opts.detailed, Kinds: kinds}, opts)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), opts.output, data); err != nil {
				return err
			}
			if opts.output != "" {
				printSuccess(cmd.ErrOrStderr(), "Rendered %s", strings.ToUpper(opts.format))
				printFile(cmd.ErrOrStderr(), opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, pdf or png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show requirements, sources and features")
	cmd.Flags().StringVar(&opts.kinds, "kinds", "", "comma-separated dependency kinds to draw: normal, dev, build")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

func renderGraph(ctx context.Context, res *manifest.Result, ropts render.Options, opts graphOpts) ([]byte, error) {
	dot := render.ToDOT(res, ropts)
	if opts.format == formatDOT {
		return []byte(dot), nil
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case formatSVG:
		return svg, nil
	case formatPDF:
		return render.ToPDF(svg)
	case formatPNG:
		return render.ToPNG(svg, opts.scale)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown graph format `%s`, expected one of dot, svg, pdf, png", opts.format)
}

// parseKinds parses a comma-separated list of dependency kinds.
func parseKinds(s string) ([]dependency.Kind, error) {
	if s == "" {
		return nil, nil
	}
	var kinds []dependency.Kind
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "normal":
			kinds = append(kinds, dependency.Normal)
		case "dev":
			kinds = append(kinds, dependency.Development)
		case "build":
			kinds = append(kinds, dependency.Build)
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"unknown dependency kind `%s`, expected normal, dev or build", part)
		}
	}
	return kinds, nil
}
