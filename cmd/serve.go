package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/app"
	coremon "github.com/kilianp07/xcharge/core/monitoring"
	"github.com/kilianp07/xcharge/infra/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch view headless behind the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides http.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup("serve", false)
	if err != nil {
		return err
	}
	defer cleanup()
	defer coremon.Recover()
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	ctx, stop := signalContext()
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Serve(ctx)
}
