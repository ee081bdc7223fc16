package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	configFile     string
	submissionFile string
	verbose        bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "vcfsubmit",
	Short: "vcfsubmit: validate and merge VCF submissions",
	Long: `vcfsubmit validates the VCF files of a submission against its metadata
spreadsheet, the reference assembly and the VCF format, then decides whether
the files of each analysis must be merged and optionally merges them.

All state of a submission is kept in its submission config file
(.submission_config.yml by default). Check history is stored in SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to vcfsubmit config file")
	rootCmd.PersistentFlags().StringVarP(&submissionFile, "submission", "s", ".submission_config.yml", "path to the submission config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(statsCmd)
}
