package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecnote/internal/version"
)

// configPath overrides the ENV-based config lookup when set.
var configPath string

var rootCmd = &cobra.Command{
	Use:          "vecnote",
	Short:        "Personal notes with private AI metadata",
	Long:         "vecnote stores notes, derives titles, tags and embeddings through an anonymizing AI layer, and serves hybrid search over HTTP.",
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print vecnote version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: config/$ENV.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
