package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStagingCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and prune staged batches",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pending staged batches, oldest first",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := setup(c.Context(), root.ConfigFile, wiring{})
			if err != nil {
				return err
			}
			defer a.close()

			batches, err := a.store.List()
			if err != nil {
				return err
			}
			for _, b := range batches {
				fmt.Fprintln(c.OutOrStdout(), b)
			}
			return nil
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of pending staged batches",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := setup(c.Context(), root.ConfigFile, wiring{})
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), n)
			return nil
		},
	}

	var days int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete staged batches older than the retention period",
		RunE: func(c *cobra.Command, args []string) error {
			a, err := setup(c.Context(), root.ConfigFile, wiring{})
			if err != nil {
				return err
			}
			defer a.close()

			if !c.Flags().Changed("days") {
				days = a.cfg.RetentionDays
			}
			removed, err := a.store.Prune(days)
			fmt.Fprintf(c.OutOrStdout(), "Removed %d staged batches older than %d days from %s\n", removed, days, a.store.Dir())
			return err
		},
	}
	prune.Flags().IntVar(&days, "days", 0, "Retention in days (defaults to RETENTION_DAYS)")

	cmd.AddCommand(list, count, prune)
	return cmd
}
