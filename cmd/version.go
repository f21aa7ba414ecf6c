package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/viewkit/internal/version"
	"github.com/conneroisu/viewkit/pkg/provider"
)

func newVersionCmd() *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for viewkit including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)
- Linked template engines

Examples:
  viewkit version              # Show version
  viewkit version --detailed   # Show detailed version info
  viewkit version --format json # Output as JSON`,
		Args: cobra.NoArgs,
		// Version output needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var engines []string
			for _, p := range provider.Default.List() {
				engines = append(engines, p.Name())
			}
			info := version.GetBuildInfo(engines...)

			out := cmd.OutOrStdout()
			switch format {
			case "json", "yaml":
				return writeStructured(out, format, info)
			case "text":
				switch {
				case short:
					fmt.Fprintln(out, info.Short())
				case detailed:
					fmt.Fprintln(out, info.Detailed())
				default:
					fmt.Fprintf(out, "viewkit %s\n", info.Short())
				}
				return nil
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")

	return cmd
}
