package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:     "list [PATTERN]",
		Aliases: []string{"l"},
		Short:   "List templates across all template directories",
		Long: `List every template file in the configured directories. A template that
exists in several directories is attributed to the first one, which is the
copy renders use; the others are reported as shadowed.

PATTERN is a doublestar glob relative to each directory (default "**").

Examples:
  viewkit list
  viewkit list 'partials/**'
  viewkit list -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			entries, err := a.Sources.List(pattern)
			if err != nil {
				return fmt.Errorf("list templates: %w", err)
			}

			if flags.OutputFormat != "table" {
				return writeStructured(cmd.OutOrStdout(), flags.OutputFormat, entries)
			}

			if len(entries) == 0 {
				if !flags.Quiet {
					fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TEMPLATE\tSOURCE\tSHADOWED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.Source, strings.Join(e.Shadowed, ", "))
			}

			return w.Flush()
		},
	}

	flags = AddStandardFlags(cmd, "output")

	return cmd
}
