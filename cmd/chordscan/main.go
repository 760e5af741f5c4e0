package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/chordscan/internal/config"
	"github.com/okian/chordscan/pkg/logger"
)

var version = "0.1.0"

var (
	configFile string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "chordscan:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chordscan",
		Short: "Recognize sheet music and label every measure with a chord",
		Long: `chordscan runs scanned scores through an OMR engine, reads the exported
MusicXML and names one chord per measure. Songs in the target language get a
placeholder lead sheet.

Examples:
  chordscan serve
  chordscan scan page.png
  chordscan gate Sa_Kanyang_Pamanaw.mp3
  chordscan leadsheet --title "My Song" C G Am F`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides CHORDSCAN_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(), newScanCmd(), newGateCmd(), newLeadSheetCmd())
	return root
}

// setup loads configuration and initializes the global logger writing to w.
func setup(cmd *cobra.Command, w io.Writer) (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CHORDSCAN_CONFIG", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "failed to load config:", err)
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := logger.InitTo(w, cfg.LogFormat); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "failed to initialize logging:", err)
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
