package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"framealign/internal/app"
	"framealign/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "framealign",
	Short: "Align roadmap epics and tickets to a framework taxonomy",
	Long: `framealign scores the epics and tickets of a planning workbook against the
framework nodes listed in its Framework_Index sheet, fills in confident
matches, and rebuilds the coverage and review sheets.

Workbooks may be .xlsx files, SQLite databases (.db, .sqlite) or directories
holding one CSV file per sheet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cmd == initConfigCmd {
			return nil
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $FRAMEALIGN_CONFIG or ./framealign.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(realignCmd, reviewCmd, applyMapCmd, syncCmd, driftCmd, classifyCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "framealign: %v\n", err)
		os.Exit(1)
	}
}

func newService() (*app.Service, error) {
	svc, err := app.NewService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return svc, nil
}

// workbookArg returns the workbook named on the command line or the newest
// .xlsx below the working directory that is not a mapped output.
func workbookArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := app.NewestWorkbook(".", cfg.Workbook.MappedSuffix)
	if err != nil {
		return "", err
	}
	logger.Info("Using newest workbook", zap.String("path", path))
	return path, nil
}
