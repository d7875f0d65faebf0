package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sudoersllc/opsbox-rego/pkg/runtime/terminal/commands"
	"github.com/sudoersllc/opsbox-rego/pkg/runtime/terminal/export"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

// CLI represents the command-line interface
type CLI struct {
	engine    *policy.Engine
	registry  *policy.Registry
	providers commands.ProviderFactory
	reporter  *export.Reporter
	rootCmd   *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Engine    *policy.Engine
	Registry  *policy.Registry
	Providers commands.ProviderFactory
	Output    io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		engine:    opts.Engine,
		registry:  opts.Registry,
		providers: opts.Providers,
		reporter:  export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsbox",
		Short: "Policy checks for cloud resource snapshots",
	}

	cmd.AddCommand(commands.NewEvaluateCmd(cli.engine, cli.reporter))
	cmd.AddCommand(commands.NewPoliciesCmd(cli.registry))
	cmd.AddCommand(commands.NewProfilesCmd())
	cmd.AddCommand(commands.NewCollectCmd(cli.providers, cli.engine, cli.reporter))

	return cmd
}
