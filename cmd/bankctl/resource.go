package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/form"
	"github.com/Veraticus/bankctl/internal/state"
)

// createFlags are shared by every create command.
type createFlags struct {
	output  string
	sets    []string
	noInput bool
}

func addCreateFlags(cmd *cobra.Command, f *createFlags) {
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field value as field=value (repeatable)")
	cmd.Flags().BoolVar(&f.noInput, "no-input", false, "do not prompt; fail if the form is incomplete")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format (table, json, yaml)")
}

// fillForm loads remembered values into f, applies --set values and, unless
// --no-input is given, prompts for the rest.
func fillForm(ctx context.Context, p *cli.Prompter, f *form.Form, flags createFlags) error {
	if err := f.Load(ctx); err != nil {
		slog.Warn("Failed to load remembered form values", "form", f.Name(), "error", err)
	}

	preset, err := parseFilters(flags.sets)
	if err != nil {
		return err
	}

	if flags.noInput {
		for field, value := range preset {
			if err := f.Set(field, value); err != nil {
				return err
			}
		}
		if errs := f.Validate(); errs != nil {
			return fmt.Errorf("invalid %s: %w", f.Name(), errs)
		}
		return nil
	}

	return p.FillForm(ctx, f, preset)
}

// rememberForm stores the cacheable values of a submitted form.
func rememberForm(ctx context.Context, f *form.Form) {
	if err := f.Save(ctx); err != nil {
		slog.Warn("Failed to remember form values", "form", f.Name(), "error", err)
	}
}

// parseID parses a positional resource id.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: want a positive number", arg)
	}
	return id, nil
}

// confirm asks before a destructive action unless force is set.
func confirm(ctx context.Context, cmd *cobra.Command, force bool, question string) error {
	if force {
		return nil
	}
	ok, err := newPrompter(cmd).Confirm(ctx, question)
	if err != nil {
		return err
	}
	if !ok {
		return cli.ErrAborted
	}
	return nil
}

// printOne writes a single resource in the requested format.
func printOne[T any](out io.Writer, output string, cols []cli.Column[T], item T) error {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}
	return cli.PrintValue(out, format, item, func(w io.Writer) error {
		return cli.RenderTable(w, cols, []T{item})
	})
}

// newPrompter prompts on the command's input and error streams.
func newPrompter(cmd *cobra.Command) *cli.Prompter {
	return cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// invalidate drops the stored snapshots of kind after a write.
func invalidate(ctx context.Context, a *app, kind state.ListKind) {
	if err := a.snapshots.InvalidateKind(ctx, string(kind)); err != nil {
		slog.Warn("Failed to invalidate snapshots", "kind", kind, "error", err)
	}
}
