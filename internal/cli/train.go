package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/bizrec/internal/services"
)

func newTrainCmd() *cobra.Command {
	opts := services.DefaultTrainingOptions()
	var wait bool

	cmd := &cobra.Command{
		Use:   "train <business-id>",
		Short: "Train the recommendation model of a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			job, st := app.Training.Submit(ctx, args[0], opts)
			if err := check(st); err != nil {
				return err
			}

			if !wait {
				if getOutputFormat() != "table" {
					return printOutput(job)
				}
				printJob(job, st.Message)
				return nil
			}

			if getOutputFormat() == "table" {
				printJob(job, st.Message)
				printLine("Waiting for the model...")
			}
			status, st := app.Training.Await(ctx, args[0])
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(map[string]interface{}{"job": job, "status": status})
			}
			printLine(st.Message)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.NSamples, "samples", opts.NSamples, "number of samples to train on")
	cmd.Flags().BoolVar(&opts.UseTabular, "tabular", opts.UseTabular, "use tabular features")
	cmd.Flags().BoolVar(&opts.UseText, "text", opts.UseText, "use text features")
	cmd.Flags().IntVar(&opts.NNeighbors, "neighbors", opts.NNeighbors, "neighbours per item in the index")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the service reports a trained model")

	return cmd
}

func printJob(job *services.Job, message string) {
	printLine(message)
	d := (&Detail{}).
		Add("Job", job.ID).
		Add("State", formatState(string(job.State)))
	if job.Ack != nil && job.Ack.Modalities != nil {
		d.Add("Tabular", yesNo(job.Ack.Modalities.Tabular)).
			Add("Text", yesNo(job.Ack.Modalities.Text))
	}
	d.Render()
}
