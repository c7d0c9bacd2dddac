package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/form"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/state"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage console users",
	}

	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersShowCmd())
	cmd.AddCommand(usersCreateCmd())
	cmd.AddCommand(usersDeleteCmd())

	return cmd
}

func usersListCmd() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long: `List users one page at a time.

Filters are passed to the user service as-is, for example:
  bankctl users list --filter role=admin --filter createdAtFrom=2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runList(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), listRequest[model.User]{
					fetcher: a.client.ListUsers,
					kind:    state.KindUsers,
					columns: cli.UserColumns(),
					flags:   flags,
				})
			})
		},
	}
	addListFlags(cmd, &flags)
	return cmd
}

func usersShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				user, err := a.client.GetUser(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd.OutOrStdout(), output, cli.UserColumns(), user)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

func usersCreateCmd() *cobra.Command {
	var flags createFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user. Fields not given with --set are prompted for; the password
is read without echo.

Fields: username, email, password, firstName, lastName, role (admin, operator, viewer).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				p := newPrompter(cmd)
				f := form.New(form.NameUser, form.UserSchema(), a.store)

				preset, err := parseFilters(flags.sets)
				if err != nil {
					return err
				}
				if _, ok := preset["password"]; !ok && !flags.noInput {
					password, err := p.Secret(ctx, "password")
					if err != nil {
						return err
					}
					flags.sets = append(flags.sets, "password="+password)
				}

				if err := fillForm(ctx, p, f, flags); err != nil {
					return err
				}
				user, err := a.client.CreateUser(ctx, form.UserPayload(f))
				if err != nil {
					return err
				}
				rememberForm(ctx, f)
				invalidate(ctx, a, state.KindUsers)

				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Created user %s (id %d)", user.Username, user.ID)))
				return printOne(cmd.OutOrStdout(), flags.output, cli.UserColumns(), user)
			})
		},
	}
	addCreateFlags(cmd, &flags)
	return cmd
}

func usersDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := confirm(ctx, cmd, force, fmt.Sprintf("Delete user %d?", id)); err != nil {
					return err
				}
				if err := a.client.DeleteUser(ctx, id); err != nil {
					return err
				}
				invalidate(ctx, a, state.KindUsers)
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Deleted user %d", id)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
