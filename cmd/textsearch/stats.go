package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index coverage statistics",
		Long: `Display how much of the corpus is searchable: the number of indexed
documents, sample sizes, and how many documents were cut off at the sample
size and are therefore only partially searchable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStats(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (c *cli) runStats(cmd *cobra.Command, jsonOutput bool) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	stats, err := a.service.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "Indexed documents:   %d\n", stats.Documents)
	fmt.Fprintf(out, "Sample size:         %d bytes\n", stats.SampleSize)
	fmt.Fprintf(out, "Indexed bytes:       %d (avg %.2f per document)\n", stats.SampleBytes, stats.AvgSampleBytes)
	fmt.Fprintf(out, "Truncated documents: %d (%.2f%%)\n", stats.Truncated, stats.TruncatedPercent)
	if run := stats.LatestRun; run != nil {
		fmt.Fprintf(out, "Latest run:          %s\n", run.ID)
		fmt.Fprintf(out, "  root:     %s\n", run.Root)
		fmt.Fprintf(out, "  started:  %s\n", run.StartedAt)
		if run.FinishedAt != "" {
			fmt.Fprintf(out, "  finished: %s\n", run.FinishedAt)
		} else {
			fmt.Fprintln(out, "  finished: (interrupted)")
		}
		fmt.Fprintf(out, "  indexed:  %d, failed: %d\n", run.Indexed, run.Failed)
	}
	return nil
}
