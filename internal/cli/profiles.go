package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/profile"
)

// profilesOpts holds the command-line flags for the profiles command.
type profilesOpts struct {
	format string // json or yaml
	name   string // single profile to print
}

func (c *CLI) profilesCommand() *cobra.Command {
	opts := profilesOpts{format: formatYAML}

	cmd := &cobra.Command{
		Use:   "profiles [manifest]",
		Short: "Print the effective build profiles",
		Long: `Print the build profiles of a manifest after the configuration's
profile overrides have been merged over them.

Examples:
  crateman profiles
  crateman profiles --name release --format json
  crateman profiles --config crateman.toml crates/core`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(firstArg(args))
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

			var table profile.Table
			if res.Package != nil {
				table = res.Package.Profiles
			} else {
				table = res.Virtual.Profiles
			}
			if len(table) == 0 && opts.name == "" {
				c.Logger.Info("No profiles defined", "manifest", path)
				return nil
			}
			var v any = table
			if opts.name != "" {
				p, ok := table[opts.name]
				if !ok {
					return errors.New(errors.ErrCodeInvalidInput, "profile `%s` is not defined in `%s`", opts.name, path)
				}
				v = p
			}
			data, err := encode(v, opts.format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json or yaml")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "print only this profile")

	return cmd
}
