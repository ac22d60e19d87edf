// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the preview, learn and compare HTTP API",
	Long: `Serve starts the HTTP API used by the review UI:

  POST /preview          upload 2 or 3 documents (doc_a, doc_b, doc_c)
  POST /learn            record a corrected value
  GET  /learning/stats   learned pattern coverage
  POST /compare          reconcile confirmed values
  GET  /health, /metrics

The server stops gracefully on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(cfg.Server, server.Deps{
			Orchestrator: a.orch,
			Learner:      a.learner,
			Stats:        a.store,
			Converter:    a.conv,
			Metrics:      a.metrics,
		})
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
