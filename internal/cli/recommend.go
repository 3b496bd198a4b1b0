package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

func newRecommendCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:     "recommend <business-id> <item-index>",
		Aliases: []string{"rec"},
		Short:   "Show the items most similar to a catalog item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, st := app.Recommendations.Query(context.Background(), args[0], args[1], k)
			if err := check(st); err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			printLine("Recommendations for:", result.ProductName)
			printLine()
			t := NewTable("RANK", "INDEX", "PRODUCT")
			for i, r := range result.Recommendations {
				t.AddRow(strconv.Itoa(i+1), strconv.Itoa(r.Index), truncate(r.ProductName, 60))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", client.DefaultK, "number of recommendations")

	return cmd
}
