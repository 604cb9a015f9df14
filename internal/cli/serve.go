package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/waymark-project/waymark/internal/api"
	"github.com/waymark-project/waymark/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background corroboration scanner",
	Long: `Serve exposes the read and admin API and keeps the corroboration
scanner running on its configured interval. SIGINT or SIGTERM shuts both
down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go app.scanner.Run(ctx)
		logging.Info("corroboration scanner started", "interval", app.cfg.Corroboration.Interval)

		srv := api.New(api.Options{
			Query:    app.query,
			Store:    app.store,
			Engine:   app.engine,
			Scanner:  app.scanner,
			Checker:  app.checker,
			Pipeline: app.pipeline,
			Workers:  app.cfg.Concurrency.IngestWorkers,
			Config:   app.cfg.Server,
		})
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
