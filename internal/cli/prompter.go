package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Veraticus/bankctl/internal/form"
)

// ErrAborted is returned when the user declines a confirmation.
var ErrAborted = errors.New("aborted")

// Prompter asks for form values and confirmations on a terminal.
type Prompter struct {
	in     io.Reader
	reader *LineReader
	writer io.Writer
}

// NewPrompter creates a prompter. Nil arguments fall back to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		in:     reader,
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// FillForm prompts for every field not in preset, then re-prompts the fields
// that fail validation until the form is valid. An empty answer keeps the
// current value.
func (p *Prompter) FillForm(ctx context.Context, f *form.Form, preset map[string]string) error {
	for field, value := range preset {
		if err := f.Set(field, value); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(p.writer, FormatTitle("New "+f.Name())); err != nil {
		return fmt.Errorf("failed to write form title: %w", err)
	}

	pending := make([]string, 0, len(f.Fields()))
	for _, field := range f.Fields() {
		if _, ok := preset[field]; !ok {
			pending = append(pending, field)
		}
	}

	for {
		for _, field := range pending {
			if err := p.askField(ctx, f, field); err != nil {
				return err
			}
		}

		errs := f.Validate()
		if errs == nil {
			return nil
		}

		pending = pending[:0]
		for _, field := range f.Fields() {
			msgs, ok := errs[field]
			if !ok {
				continue
			}
			if _, err := fmt.Fprintln(p.writer, FormatError(field+": "+strings.Join(msgs, ", "))); err != nil {
				return fmt.Errorf("failed to write validation error: %w", err)
			}
			pending = append(pending, field)
		}
	}
}

func (p *Prompter) askField(ctx context.Context, f *form.Form, field string) error {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(field, f.Get(field))); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	if answer == "" {
		return nil
	}
	return f.Set(field, answer)
}

// Confirm asks a yes/no question. Anything but y or yes declines.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(p.writer, PromptStyle.Render(question+" [y/N]:")+" "); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Line asks for a single value.
func (p *Prompter) Line(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt, "")); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", prompt, err)
	}
	return line, nil
}

// Secret asks for a value without echoing it when input is a terminal.
func (p *Prompter) Secret(ctx context.Context, prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(ctx, prompt)
	}

	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt, "")); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	secret, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(p.writer)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", prompt, err)
	}
	return string(secret), nil
}
