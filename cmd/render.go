package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		flags   *StandardFlags
		outFile string
	)

	cmd := &cobra.Command{
		Use:     "render NAME",
		Aliases: []string{"r"},
		Short:   "Render a view",
		Long: `Render the view called NAME with a model and print the result.

The name is resolved through the configured aliases, prefix and suffix,
and looked up in the template directories in order.

Examples:
  viewkit render page --model '{"title":"Hello"}'
  viewkit render page --model @model.yaml
  viewkit render page --alias header=partials/alt-header
  viewkit render page --layout layout
  viewkit render page --no-layout --out page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			model, err := flags.ParseModel()
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			out, err := a.Render(commandContext(cmd), args[0], model, flags.RenderOptions()...)
			if err != nil {
				return err
			}

			if outFile != "" {
				return os.WriteFile(outFile, []byte(out), 0o644)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}

	flags = AddStandardFlags(cmd, "model", "aliases", "layout")
	cmd.Flags().StringVar(&outFile, "out", "", "write the output to a file instead of stdout")

	return cmd
}
