package opal

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/halkwu/opal-card/internal/browser"
	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/export"
	"github.com/halkwu/opal-card/internal/portal"
	"github.com/halkwu/opal-card/internal/server"
)

var serveCmd = newServeCommand()

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction engine over HTTP",
		Long:  "Exposes buffered and streaming extraction endpoints plus a last-result query.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scraper := portal.New(func(ctx context.Context, headful bool) (browser.Capability, error) {
				return browser.NewChrome(ctx, headful)
			})

			run := func(ctx context.Context, opts export.Options, onProgress portal.ProgressFunc) ([]domain.LedgerEntry, error) {
				return export.Run(ctx, scraper, opts, onProgress)
			}

			return server.New(run, addr).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8090", "Listen address")

	return cmd
}
