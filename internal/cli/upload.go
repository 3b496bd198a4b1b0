package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/bizrec/internal/services"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <business-id> <file>",
		Short: "Upload a training dataset for a business",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open dataset: %w", err)
			}
			defer f.Close()

			st := app.Uploads.Submit(context.Background(), args[0], &services.File{
				Name:    filepath.Base(args[1]),
				Content: f,
			})
			if err := check(st); err != nil {
				return err
			}
			printLine(st.Message)
			return nil
		},
	}
}
