package main

import (
	"os"

	"road-risk-api/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "MADly Safe risk engine from the command line",
	Long:  `riskctl scores traffic scenarios against a model artifact and inspects the shared schema.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logging.Init(logging.Options{Level: level, Format: "console", Service: "riskctl", Writer: cmd.ErrOrStderr()})
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newWindowsCmd())
	rootCmd.AddCommand(newVocabCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
