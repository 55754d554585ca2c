package terminal

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warehouse-tools/priceplan/pkg/runtime/terminal/commands"
	"github.com/warehouse-tools/priceplan/pkg/runtime/terminal/export"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
	"github.com/warehouse-tools/priceplan/pkg/store/duckdb/sales"
)

// CLI represents the command-line interface
type CLI struct {
	opts    Options
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Planner        planner.Planner
	Explorer       history.Explorer
	DB             *sql.DB
	Sales          sales.Store
	DefaultProfile string
	Output         io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{opts: opts}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priceplan",
		Short: "Warehouse production planning tool",
	}

	cmd.AddCommand(commands.NewPlanCmd(
		cli.opts.Planner,
		cli.opts.Explorer,
		NewReporter(cli.opts.Output),
		export.NewReporter(cli.opts.Output),
		cli.opts.DefaultProfile,
	))
	cmd.AddCommand(commands.NewSourcesCmd(cli.opts.Explorer))
	cmd.AddCommand(commands.NewImportCmd(cli.opts.DB, cli.opts.Sales))

	return cmd
}
