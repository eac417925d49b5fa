package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ouroborosapi/ouroboros/importer"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Validate an OpenAPI specification file for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			issues := importer.Validate(args[0], data)
			if len(issues) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n",
					issue.Location, issue.Code, issue.Message)
			}
			return fmt.Errorf("%d validation issue(s) found", len(issues))
		},
	}
}
