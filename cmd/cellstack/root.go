package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cellstack/cellstack/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cellstack",
	Short: "cellstack composes recurrent cells into a single logical cell",
	Long:  `cellstack loads stacked recurrent cell models from YAML descriptors and can inspect them, run input sequences through them, or serve them over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

// newLogger builds the CLI logger honoring the --verbose flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}
