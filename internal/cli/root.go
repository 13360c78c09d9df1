// Package cli handles the command-line interface logic
// using the Cobra library.
package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigFile string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "opinions-etl",
		Short: "Opinions ETL - customer opinions into a star-schema warehouse",
		Long: `opinions-etl extracts customer opinions from CSV files, SQL Server,
MongoDB and an HTTP API, stages them as JSON snapshots and loads them into
the dimensional model of the analytical SQL Server database.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Optional YAML config file (environment variables take precedence)")

	rootCmd.AddCommand(
		newExtractCmd(opts),
		newLoadCmd(opts),
		newCheckCmd(opts),
		newStagingCmd(opts),
		newRunCmd(opts),
	)

	return rootCmd
}
