package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/enricher"
)

func newEnrichCommand() *cobra.Command {
	var websocket bool
	cmd := &cobra.Command{
		Use:   "enrich <spec-file>",
		Short: "Apply x-ouroboros-* defaults to a specification file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := document.NewSlogAdapter(slog.New(
				slog.NewTextHandler(os.Stderr, nil)))
			store := document.NewStore(args[0], document.WithStoreLogger(log))
			doc, err := store.Load()
			if err != nil {
				return err
			}
			enr := enricher.New(enricher.WithLogger(log))
			var res *enricher.Result
			if websocket {
				res = enr.EnrichWebSocket(doc)
			} else {
				res = enr.EnrichREST(doc)
			}
			if !res.Changed() {
				fmt.Fprintln(cmd.OutOrStdout(), "already enriched, no changes")
				return nil
			}
			if err := store.Save(doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"enriched %s: %d operations, %d schemas, %d stubbed refs, %d constraint fixes\n",
				args[0], res.Operations, res.Schemas, res.Stubs, res.ConstraintFixes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&websocket, "websocket", false, "treat the file as an AsyncAPI specification")
	return cmd
}
