package main

import (
	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/docstore"
	"github.com/medportal/medassist/internal/server"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	var addr string
	var corsOrigins []string
	var noRecords bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve flows and records over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cfgPath, func(cfg config.Config) error {
				ctx := cmd.Context()

				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				reg, err := buildRegistry(cfg, logger)
				if err != nil {
					return err
				}
				m, err := buildModel(ctx, cfg)
				if err != nil {
					return err
				}

				opts := []server.Option{
					server.WithLogger(logger),
					server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
				}
				if len(corsOrigins) > 0 {
					opts = append(opts, server.WithCORSOrigins(corsOrigins...))
				}
				if !noRecords {
					store, err := docstore.Open(ctx, cfg.DatabasePath)
					if err != nil {
						return err
					}
					defer store.Close()
					opts = append(opts, server.WithRecords(store))
				}

				if addr == "" {
					addr = cfg.Server.Addr
				}
				srv := server.New(buildExecutor(cfg, reg, m, logger), opts...)
				return srv.Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().BoolVar(&noRecords, "no-records", false, "do not serve the document store")

	return cmd
}
