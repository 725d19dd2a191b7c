// Package cmd implements the command-line interface for linkwatch.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkwatch/cmd/migrate"
	"github.com/linkforge/linkwatch/cmd/monitor"
	"github.com/linkforge/linkwatch/cmd/serve"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// rootCmd represents the root command for the linkwatch CLI.
	rootCmd = &cobra.Command{
		Use:   "linkwatch",
		Short: "Backlink verification and monitoring engine",
		Long: `Linkwatch verifies that claimed backlinks exist on their source pages,
classifies them as dofollow or nofollow, and monitors them over time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("linkwatch version %s\n", version)
		},
	})

	rootCmd.AddCommand(serve.Command(&cfgFile))
	rootCmd.AddCommand(monitor.Command(&cfgFile))
	rootCmd.AddCommand(migrate.Command(&cfgFile))
}
