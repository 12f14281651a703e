package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/config"
	coremon "github.com/kilianp07/xcharge/core/monitoring"
	"github.com/kilianp07/xcharge/infra/logger"
	inframon "github.com/kilianp07/xcharge/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "xcharge",
	Short:        "On-demand EV charger dispatch view",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file (defaults are used when missing)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads the configuration and prepares logging and error monitoring
// for the named command. The returned function flushes and closes both.
func setup(command string, logToFile bool) (*config.Config, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logToFile && cfg.Logging.File == "" {
		cfg.Logging.File = "xcharge.log"
	}
	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := inframon.NewSentryMonitor(cfg.Sentry, command)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
		mon = coremon.NopMonitor{}
	}
	coremon.Init(mon)
	if !config.Exists(cfgPath) {
		logger.New("main").Infof("config %s not found, using defaults", cfgPath)
	}
	cleanup := func() {
		coremon.Flush(2 * time.Second)
		closeQuietly(logCloser)
	}
	return cfg, cleanup, nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close:", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
