package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

func newBusinessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "business",
		Aliases: []string{"biz"},
		Short:   "Manage businesses",
	}

	cmd.AddCommand(newBusinessListCmd())
	cmd.AddCommand(newBusinessGetCmd())
	cmd.AddCommand(newBusinessCreateCmd())
	cmd.AddCommand(newBusinessUpdateCmd())
	cmd.AddCommand(newBusinessDeleteCmd())
	cmd.AddCommand(newBusinessStatusCmd())
	cmd.AddCommand(newBusinessClearDataCmd())
	cmd.AddCommand(newBusinessItemsCmd())

	return cmd
}

func printBusinesses(businesses []client.Business) error {
	format := getOutputFormat()
	if format != "table" {
		return printOutput(businesses)
	}

	t := NewTable("ID", "NAME", "INDUSTRY", "CONTACT", "UPDATED")
	for _, b := range businesses {
		t.AddRow(
			b.ID.String(),
			truncate(b.Name, 30),
			truncate(b.Industry, 20),
			b.ContactEmail,
			formatTime(b.UpdatedAt),
		)
	}
	t.Render()
	return nil
}

func printBusiness(b *client.Business) error {
	format := getOutputFormat()
	if format != "table" {
		return printOutput(b)
	}

	(&Detail{}).
		Add("ID", b.ID.String()).
		Add("Name", b.Name).
		Add("Industry", b.Industry).
		Add("Contact", b.ContactEmail).
		Add("Created", formatTime(b.CreatedAt)).
		Add("Updated", formatTime(b.UpdatedAt)).
		Render()
	return nil
}

func newBusinessListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List businesses",
		RunE: func(cmd *cobra.Command, args []string) error {
			businesses, st := app.Businesses.List(context.Background())
			if err := check(st); err != nil {
				return err
			}
			return printBusinesses(businesses)
		},
	}
}

func newBusinessGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get business details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, st := app.Businesses.Get(context.Background(), args[0])
			if err := check(st); err != nil {
				return err
			}
			return printBusiness(b)
		},
	}
}

func draftFlags(cmd *cobra.Command, draft *client.BusinessDraft) {
	cmd.Flags().StringVar(&draft.Name, "name", "", "business name")
	cmd.Flags().StringVar(&draft.Industry, "industry", "", "industry")
	cmd.Flags().StringVar(&draft.ContactEmail, "email", "", "contact email")
}

func newBusinessCreateCmd() *cobra.Command {
	var draft client.BusinessDraft

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a business",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, st := app.Businesses.Create(context.Background(), draft)
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(created)
			}
			printLine(fmt.Sprintf("%s (id %s)", st.Message, created.ID))
			return nil
		},
	}

	draftFlags(cmd, &draft)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newBusinessUpdateCmd() *cobra.Command {
	var draft client.BusinessDraft

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the name, industry and contact email of a business",
		Long: `Replace the name, industry and contact email of a business.
Fields without a flag keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			current, st := app.Businesses.Get(ctx, args[0])
			if err := check(st); err != nil {
				return err
			}
			next := current.Draft()
			if cmd.Flags().Changed("name") {
				next.Name = draft.Name
			}
			if cmd.Flags().Changed("industry") {
				next.Industry = draft.Industry
			}
			if cmd.Flags().Changed("email") {
				next.ContactEmail = draft.ContactEmail
			}

			updated, st := app.Businesses.Update(ctx, args[0], next)
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(updated)
			}
			printLine(st.Message)
			return nil
		},
	}

	draftFlags(cmd, &draft)

	return cmd
}

func newBusinessDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.Businesses.Delete(context.Background(), args[0])
			if err := check(st); err != nil {
				return err
			}
			printLine(st.Message)
			return nil
		},
	}
}

func newBusinessStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show whether a business has data and a trained model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st := app.Businesses.Status(context.Background(), args[0])
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(s)
			}

			(&Detail{}).
				Add("Business", fmt.Sprintf("%s (%s)", s.Name, s.BusinessID)).
				Add("Data", yesNo(s.HasData)).
				Add("Model", yesNo(s.HasModel)).
				Render()
			return nil
		},
	}
}

func newBusinessClearDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-data <id>",
		Short: "Remove the uploaded dataset and trained model of a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, st := app.Businesses.ClearData(context.Background(), args[0])
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(resp)
			}

			printLine(st.Message)
			for _, f := range resp.DeletedFiles {
				printLine("  removed", f)
			}
			return nil
		},
	}
}

func newBusinessItemsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "items <id>",
		Short: "List catalog items of a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, st := app.Businesses.Items(context.Background(), args[0], limit)
			if err := check(st); err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(items)
			}

			t := NewTable("INDEX", "PRODUCT")
			for _, it := range items {
				t.AddRow(strconv.Itoa(it.Index), truncate(it.ProductName, 60))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of items")

	return cmd
}
