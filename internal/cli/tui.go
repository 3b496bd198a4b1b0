package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pratik-mahalle/bizrec/internal/pkg/metrics"
	"github.com/pratik-mahalle/bizrec/internal/tui"
)

func newTUICmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("tui needs an interactive terminal")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			addr := metricsAddr
			if addr == "" {
				addr = appCfg.Metrics.Addr
			}
			if addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr); err != nil {
						log.ErrorWithErr(err, "metrics endpoint stopped")
					}
				}()
				log.With("addr", addr).Info("serving metrics")
			}

			p := tea.NewProgram(tui.NewModel(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the session runs")

	return cmd
}
