package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

func newExtractCmd(root *rootOptions) *cobra.Command {
	var load bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run every configured extractor once and stage the results",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			a, err := setup(ctx, root.ConfigFile, wiring{extractors: true, loader: load})
			if err != nil {
				return err
			}
			defer a.close()

			summary := a.orchestrator.Run(ctx)
			printSummary(c.OutOrStdout(), summary)

			if load {
				n, err := a.loader.LoadPending(ctx)
				fmt.Fprintf(c.OutOrStdout(), "Loaded %d facts\n", n)
				if err != nil {
					return err
				}
			}
			if summary.SuccessfulSources == 0 && summary.TotalSources > 0 {
				return errors.New("every extractor failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&load, "load", false, "Load staged batches into the warehouse after extracting")
	return cmd
}

func newLoadCmd(root *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "load [staged-batch...]",
		Short: "Load staged batches into the dimensional model",
		Args: func(c *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass staged batch paths or --all, not both")
			}
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			a, err := setup(ctx, root.ConfigFile, wiring{loader: true})
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				n, err := a.loader.LoadPending(ctx)
				fmt.Fprintf(c.OutOrStdout(), "Loaded %d facts\n", n)
				return err
			}

			total := 0
			for _, locator := range args {
				n, err := a.loader.LoadFromStaging(ctx, locator)
				total += n
				if err != nil {
					fmt.Fprintf(c.OutOrStdout(), "Loaded %d facts\n", total)
					return err
				}
			}
			fmt.Fprintf(c.OutOrStdout(), "Loaded %d facts\n", total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Load every pending staged batch, oldest first")
	return cmd
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate extractor configuration and the warehouse connection",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			a, err := setup(ctx, root.ConfigFile, wiring{extractors: true, loader: true, verify: true})
			if err != nil {
				return err
			}
			defer a.close()

			out := c.OutOrStdout()
			healthy := a.loader.ValidateConnection(ctx)
			fmt.Fprintf(out, "%-20s %s\n", "Warehouse", status(healthy))
			for _, ext := range a.orchestrator.Extractors() {
				valid := ext.ValidateConfiguration()
				healthy = healthy && valid
				fmt.Fprintf(out, "%-20s %s\n", ext.Name(), status(valid))
			}
			if !healthy {
				return errors.New("configuration check failed")
			}
			return nil
		},
	}
}

func status(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

func printSummary(w io.Writer, s models.Summary) {
	fmt.Fprintf(w, "Extraction finished in %s: %d/%d sources, %d records\n",
		s.Elapsed, s.SuccessfulSources, s.TotalSources, s.TotalRecords)
	for _, r := range s.Results {
		if r.Success {
			fmt.Fprintf(w, "  %-20s %6d records  %s\n", r.SourceName, r.RecordsExtracted, r.Duration)
			continue
		}
		fmt.Fprintf(w, "  %-20s FAILED: %s\n", r.SourceName, r.ErrorMessage)
	}
	for _, b := range s.StagedBatches {
		fmt.Fprintf(w, "  staged %s\n", b)
	}
	if s.StagingErrors > 0 {
		fmt.Fprintf(w, "  %d batches could not be staged\n", s.StagingErrors)
	}
}
