package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/internal/mcpserver"
	"github.com/ouroborosapi/ouroboros/mockserver"
	"github.com/ouroborosapi/ouroboros/service"
)

func newMCPCommand() *cobra.Command {
	var restSpec string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server over stdio, exposing the
specification and mock registry as tools for coding agents. Logs go to
stderr; stdout carries the MCP protocol.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := document.NewSlogAdapter(slog.New(
				slog.NewTextHandler(os.Stderr, nil)))

			store := document.NewStore(restSpec, document.WithStoreLogger(log))
			registry := mockserver.NewRegistry(mockserver.WithRegistryLogger(log))
			loader := mockserver.NewLoader(store, mockserver.WithLoaderLogger(log))
			if err := registry.Reload(loader); err != nil {
				log.Warn("initial mock registry load failed", "error", err)
			}

			co := service.NewCoordinator(service.KindREST, store,
				service.WithLogger(log), service.WithRegistry(registry))

			return mcpserver.Run(cmd.Context(), mcpserver.Deps{
				Spec:     service.NewSpecService(co),
				Schemas:  service.NewSchemaService(co),
				Registry: registry,
			})
		},
	}
	cmd.Flags().StringVar(&restSpec, "rest-spec", "openapi.yaml", "path to the OpenAPI specification file")
	return cmd
}
