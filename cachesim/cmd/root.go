// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	logLevel string
	envFiles []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Trace-driven simulator of a multi-level cache hierarchy.",
	Long: `cachesim replays instruction fetch, load and store traces through ` +
		`L1 caches, a shared L2 cache and a DRAM model, and reports hit ` +
		`rates and access delays.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}

		logrus.SetLevel(level)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file",
		[]string{".env"}, "Files to load environment variables from")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. The process exits through atexit so that recorders can
// flush.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
