package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	_ "github.com/conneroisu/viewkit/pkg/engine/all"
	"github.com/conneroisu/viewkit/pkg/provider"
)

type providerReport struct {
	Name     string `json:"name" yaml:"name"`
	Priority int    `json:"priority" yaml:"priority"`
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Linked   bool   `json:"linked" yaml:"linked"`
	Status   string `json:"status" yaml:"status"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Selected bool   `json:"selected" yaml:"selected"`
}

func providerReports(r *provider.Registry) []providerReport {
	selected, selectErr := r.Select()

	reports := make([]providerReport, 0, len(provider.Kinds))
	for _, status := range r.Statuses() {
		report := providerReport{
			Name:     status.Kind.String(),
			Priority: status.Kind.Priority(),
			Linked:   status.Registered,
			Status:   status.State.String(),
			Selected: selectErr == nil && selected.Kind == status.Kind,
		}
		if p, ok := r.Get(status.Kind); ok {
			report.Strategy = p.Strategy
		}
		if status.Err != nil {
			report.Error = status.Err.Error()
		}
		reports = append(reports, report)
	}

	return reports
}

func newProvidersCmd() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show template engines and which one is selected",
		Long: `Probe every supported template engine in priority order and report
whether it is linked and working. The engine marked as selected is the one
used when templates.engine is "auto".

Examples:
  viewkit providers
  viewkit providers -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			reports := providerReports(provider.Default)

			if flags.OutputFormat != "table" {
				return writeStructured(cmd.OutOrStdout(), flags.OutputFormat, reports)
			}

			title := cases.Title(language.English)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tNAME\tPRIORITY\tSTRATEGY\tSTATUS\tDETAIL")
			for _, r := range reports {
				marker := ""
				if r.Selected {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					marker, r.Name, r.Priority, r.Strategy, title.String(r.Status), r.Error)
			}

			return w.Flush()
		},
	}

	flags = AddStandardFlags(cmd, "output")

	return cmd
}
