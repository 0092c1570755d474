package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"custodycal/internal/config"
	appLog "custodycal/internal/log"
	"custodycal/internal/metrics"
	"custodycal/internal/pipeline"
)

// app carries state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string

	cfg  *config.Config
	pipe *pipeline.Pipeline
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "custodycal",
		Short:         "Custody schedule calendar generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "custodycal.yaml", "configuration file (YAML or JSON)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: json or console (default json, console when APP_ENV=dev)")

	root.AddCommand(generateCmd(a), serveCmd(a), exportCmd(a), statsCmd(a))
	return root
}

func (a *app) setup() error {
	switch strings.ToLower(a.logFormat) {
	case "":
	case "json":
		appLog.SetOutput(os.Stderr)
	case "console":
		appLog.SetConsole(os.Stderr)
	default:
		return fmt.Errorf("unknown --log-format %q", a.logFormat)
	}
	appLog.SetLevel(appLog.ParseLevel(a.logLevel))

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rec, err := metrics.NewRecorder(nil)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.pipe = pipeline.New(cfg, afero.NewOsFs(), rec)

	appLog.Info("effective config",
		"config_path", a.cfgPath,
		"input_dir", cfg.InputDir,
		"output_dir", cfg.OutputDir,
		"timezone", cfg.Timezone,
		"custodians", len(cfg.Custodians),
	)
	return nil
}
