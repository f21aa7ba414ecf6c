package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/viewkit/internal/app"
)

func newResolveCmd() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Show where template names resolve to",
		Long: `Resolve each NAME to a location the way a render would, and report the
template directory that serves it.

Examples:
  viewkit resolve header
  viewkit resolve header --alias header=partials/alt-header
  viewkit resolve page header -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			results := make([]app.Resolution, 0, len(args))
			for _, name := range args {
				results = append(results, a.Resolve(name, flags.Aliases))
			}

			if flags.OutputFormat != "table" {
				return writeStructured(cmd.OutOrStdout(), flags.OutputFormat, results)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLOCATION\tEXISTS\tRESOURCE")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", r.Name, r.Location, r.Exists, r.Resource)
			}

			return w.Flush()
		},
	}

	flags = AddStandardFlags(cmd, "aliases", "output")

	return cmd
}
