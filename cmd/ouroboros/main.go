// Command ouroboros runs the specification editing and mock serving server,
// plus file-level utility subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ouroborosapi/ouroboros"
)

func main() {
	root := &cobra.Command{
		Use:           "ouroboros",
		Short:         "Author OpenAPI/AsyncAPI specs, serve mocks, reconcile against code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newEnrichCommand(),
		newValidateCommand(),
		newMCPCommand(),
		newVersionCommand(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ouroboros version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ouroboros v%s\n", ouroboros.Version())
		},
	}
}
