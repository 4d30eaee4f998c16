package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/parrot/internal/server"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP synthesis endpoint",
		Long:    paragraph(fmt.Sprintf("\n%s the HTTP synthesis endpoint. Other parrot clients reach it by setting PARROT_ENDPOINT.", keyword("Run"))),
		Example: paragraph("parrot serve\nparrot serve --addr 0.0.0.0:8750"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := cfg.ListenAddr
			if serveAddr != "" {
				addr = serveAddr
			}

			srv, err := server.New(server.Config{
				Addr:             addr,
				CORSOrigins:      cfg.CORSOrigins,
				SynthesisTimeout: cfg.EndpointTimeout,
			}, newRouter(cfg, logger), logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default PARROT_LISTEN_ADDR)")
}
