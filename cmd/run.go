package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/app"
	coremon "github.com/kilianp07/xcharge/core/monitoring"
	"github.com/kilianp07/xcharge/infra/logger"
	"github.com/kilianp07/xcharge/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive dispatch view",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup("run", true)
	if err != nil {
		return err
	}
	defer cleanup()
	defer coremon.Recover()

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
	feed := svc.Snapshots().Subscribe()
	defer svc.Snapshots().Unsubscribe(feed)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	initial, _ := svc.Snapshots().Latest()

	p := tea.NewProgram(ui.NewModel(svc, feed, initial, cfg.Map), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
