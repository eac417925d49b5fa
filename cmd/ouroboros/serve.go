package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ouroborosapi/ouroboros"
	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/httpapi"
	"github.com/ouroborosapi/ouroboros/mockserver"
	"github.com/ouroborosapi/ouroboros/service"
)

func newServeCommand() *cobra.Command {
	var (
		addr     string
		restSpec string
		wsSpec   string
		scanURL  string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the control surface and the mock endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := document.NewSlogAdapter(slog.New(
				slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			store := document.NewStore(restSpec, document.WithStoreLogger(log))
			registry := mockserver.NewRegistry(mockserver.WithRegistryLogger(log))
			loader := mockserver.NewLoader(store, mockserver.WithLoaderLogger(log))

			co := service.NewCoordinator(service.KindREST, store,
				service.WithLogger(log), service.WithRegistry(registry))
			specs := service.NewSpecService(co)
			schemas := service.NewSchemaService(co)

			apiOpts := []httpapi.Option{httpapi.WithLogger(log)}
			if wsSpec != "" {
				wsStore := document.NewStore(wsSpec, document.WithStoreLogger(log))
				wsCo := service.NewCoordinator(service.KindWebSocket, wsStore,
					service.WithLogger(log))
				apiOpts = append(apiOpts,
					httpapi.WithWebSocketService(service.NewWebSocketService(wsCo)))
			}
			if scanURL != "" {
				apiOpts = append(apiOpts, httpapi.WithScannedSpecProvider(func() (*document.Map, error) {
					return ouroboros.FetchScannedSpec(cmd.Context(), scanURL, 10*time.Second)
				}))
			}

			mux := http.NewServeMux()
			httpapi.New(specs, schemas, apiOpts...).Routes(mux)

			runner := ouroboros.NewRunner(
				ouroboros.WithRunnerLogger(log),
				ouroboros.WithProtocolHandler(ouroboros.ProtocolHandlerFunc{
					Protocol: "http",
					Fn: func(ctx context.Context) error {
						if scanURL == "" {
							return nil
						}
						scanned, err := ouroboros.FetchScannedSpec(ctx, scanURL, 10*time.Second)
						if err != nil {
							return err
						}
						_, err = specs.Reconcile(scanned)
						return err
					},
				}),
				ouroboros.WithRegistryLoad(registry, loader),
			)
			runner.Run(cmd.Context())

			handler := mockserver.Middleware(registry,
				mockserver.WithMiddlewareLogger(log))(mux)

			log.Info("listening", "addr", addr, "spec", restSpec)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return server.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&restSpec, "rest-spec", "openapi.yaml", "path to the OpenAPI specification file")
	cmd.Flags().StringVar(&wsSpec, "ws-spec", "", "path to the AsyncAPI specification file (optional)")
	cmd.Flags().StringVar(&scanURL, "scan-url", "", "URL of the host application's generated OpenAPI document (optional)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
