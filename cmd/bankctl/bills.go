package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/form"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/state"
)

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bills",
		Aliases: []string{"bill"},
		Short:   "Manage bills",
	}

	cmd.AddCommand(billsListCmd())
	cmd.AddCommand(billsShowCmd())
	cmd.AddCommand(billsCreateCmd())
	cmd.AddCommand(billsDeleteCmd())

	return cmd
}

func billsListCmd() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills",
		Long: `List bills one page at a time.

Range filters (keys ending in From or To) switch to the search endpoint:
  bankctl bills list --filter dueDateFrom=2024-01-01 --filter dueDateTo=2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runList(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), listRequest[model.Bill]{
					fetcher: a.client.ListBills,
					kind:    state.KindBills,
					columns: cli.BillColumns(time.Now()),
					flags:   flags,
				})
			})
		},
	}
	addListFlags(cmd, &flags)
	return cmd
}

func billsShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				bill, err := a.client.GetBill(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd.OutOrStdout(), output, cli.BillColumns(time.Now()), bill)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

func billsCreateCmd() *cobra.Command {
	var flags createFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bill",
		Long: `Create a bill. Fields not given with --set are prompted for. The currency,
consumer, receiver and location you used last time are offered as defaults.

Fields: title, amount, currency, dueDate (YYYY-MM-DD), consumerId, receiverId, locationId.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				f := form.New(form.NameBill, form.BillSchema(), a.store)
				if err := fillForm(ctx, newPrompter(cmd), f, flags); err != nil {
					return err
				}
				payload, err := form.BillPayload(f)
				if err != nil {
					return err
				}
				bill, err := a.client.CreateBill(ctx, payload)
				if err != nil {
					return err
				}
				rememberForm(ctx, f)
				invalidate(ctx, a, state.KindBills)

				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Created bill %q (id %d)", bill.Title, bill.ID)))
				return printOne(cmd.OutOrStdout(), flags.output, cli.BillColumns(time.Now()), bill)
			})
		},
	}
	addCreateFlags(cmd, &flags)
	return cmd
}

func billsDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := confirm(ctx, cmd, force, fmt.Sprintf("Delete bill %d?", id)); err != nil {
					return err
				}
				if err := a.client.DeleteBill(ctx, id); err != nil {
					return err
				}
				invalidate(ctx, a, state.KindBills)
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Deleted bill %d", id)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
