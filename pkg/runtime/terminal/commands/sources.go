package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
)

type SourcesCmd struct {
	explorer history.Explorer
}

func NewSourcesCmd(explorer history.Explorer) *cobra.Command {
	sc := &SourcesCmd{explorer: explorer}
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured sales-history sources",
		RunE:  sc.run,
	}

	return cmd
}

func (sc *SourcesCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	profiles, err := sc.explorer.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sales-history sources configured")
		return nil
	}

	lines := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		lines = append(lines, fmt.Sprintf("%s (%s)", profile.Name, profile.Type))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configured sources:\n%s\n", strings.Join(lines, "\n"))
	return nil
}
