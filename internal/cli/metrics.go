package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/bizrec/internal/services"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

func newMetricsCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "metrics <business-id>",
		Short: "Show ranking-quality metrics of a trained model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, st := app.Metrics.Query(context.Background(), args[0], k)
			if err := check(st); err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			indicators := services.Indicators(result)
			if len(indicators) == 0 {
				printLine(fmt.Sprintf("No metrics reported at k=%d", result.K))
				return nil
			}
			t := NewTable("METRIC", "VALUE")
			for _, ind := range indicators {
				t.AddRow(ind.Label, ind.Formatted())
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", client.DefaultK, "cut-off rank")

	return cmd
}
