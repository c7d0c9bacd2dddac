package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/form"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/state"
)

// directoryResource describes a list-and-create resource of the bank service.
type directoryResource[T any] struct {
	fetcher  func(*app) listing.Fetcher[T]
	create   func(context.Context, *app, *form.Form) (T, error)
	schema   func() form.Schema
	columns  func() []cli.Column[T]
	describe func(T) string
	name     string
	plural   string
	formName string
	fields   string
	kind     state.ListKind
}

func directoryCmd[T any](r directoryResource[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     r.plural,
		Aliases: []string{r.name},
		Short:   "Manage " + r.plural,
	}

	var lf listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List " + r.plural,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runList(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), listRequest[T]{
					fetcher: r.fetcher(a),
					kind:    r.kind,
					columns: r.columns(),
					flags:   lf,
				})
			})
		},
	}
	addListFlags(listCmd, &lf)

	var cf createFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + r.name,
		Long:  fmt.Sprintf("Create a %s. Fields not given with --set are prompted for.\n\nFields: %s.", r.name, r.fields),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				f := form.New(r.formName, r.schema(), a.store)
				if err := fillForm(ctx, newPrompter(cmd), f, cf); err != nil {
					return err
				}
				created, err := r.create(ctx, a, f)
				if err != nil {
					return err
				}
				rememberForm(ctx, f)
				invalidate(ctx, a, r.kind)

				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Created "+r.name+" "+r.describe(created)))
				return printOne(cmd.OutOrStdout(), cf.output, r.columns(), created)
			})
		},
	}
	addCreateFlags(createCmd, &cf)

	cmd.AddCommand(listCmd)
	cmd.AddCommand(createCmd)
	return cmd
}

func consumersCmd() *cobra.Command {
	return directoryCmd(directoryResource[model.Consumer]{
		fetcher: func(a *app) listing.Fetcher[model.Consumer] { return a.client.ListConsumers },
		create: func(ctx context.Context, a *app, f *form.Form) (model.Consumer, error) {
			payload, err := form.ConsumerPayload(f)
			if err != nil {
				return model.Consumer{}, err
			}
			return a.client.CreateConsumer(ctx, payload)
		},
		schema:   form.ConsumerSchema,
		columns:  cli.ConsumerColumns,
		describe: func(c model.Consumer) string { return fmt.Sprintf("%s (id %d)", c.Name, c.ID) },
		name:     "consumer",
		plural:   "consumers",
		formName: form.NameConsumer,
		fields:   "name, email, phone, locationId",
		kind:     state.KindConsumers,
	})
}

func receiversCmd() *cobra.Command {
	return directoryCmd(directoryResource[model.Receiver]{
		fetcher: func(a *app) listing.Fetcher[model.Receiver] { return a.client.ListReceivers },
		create: func(ctx context.Context, a *app, f *form.Form) (model.Receiver, error) {
			return a.client.CreateReceiver(ctx, form.ReceiverPayload(f))
		},
		schema:   form.ReceiverSchema,
		columns:  cli.ReceiverColumns,
		describe: func(r model.Receiver) string { return fmt.Sprintf("%s (id %d)", r.Name, r.ID) },
		name:     "receiver",
		plural:   "receivers",
		formName: form.NameReceiver,
		fields:   "name, accountNumber, bankName",
		kind:     state.KindReceivers,
	})
}

func locationsCmd() *cobra.Command {
	return directoryCmd(directoryResource[model.Location]{
		fetcher: func(a *app) listing.Fetcher[model.Location] { return a.client.ListLocations },
		create: func(ctx context.Context, a *app, f *form.Form) (model.Location, error) {
			return a.client.CreateLocation(ctx, form.LocationPayload(f))
		},
		schema:   form.LocationSchema,
		columns:  cli.LocationColumns,
		describe: func(l model.Location) string { return fmt.Sprintf("%s (id %d)", l.Name, l.ID) },
		name:     "location",
		plural:   "locations",
		formName: form.NameLocation,
		fields:   "name, address, city, country",
		kind:     state.KindLocations,
	})
}
