package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an output format other than table, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how command results are written.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json or yaml)", ErrUnknownFormat, s)
	}
}

// Column describes one table column over items of type T.
type Column[T any] struct {
	Value func(T) string
	Title string
	Width int
}

// RenderTable writes items as an aligned table with a styled header.
func RenderTable[T any](w io.Writer, cols []Column[T], items []T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = TableHeaderStyle.Render(c.Title)
		rules[i] = strings.Repeat("-", max(len(c.Title), min(c.Width, 20)))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rules, "\t")); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	cells := make([]string, len(cols))
	for _, item := range items {
		for i, c := range cols {
			cells[i] = Truncate(c.Value(item), c.Width)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("failed to write table row: %w", err)
		}
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// PrintList writes items in the requested format.
func PrintList[T any](w io.Writer, format Format, cols []Column[T], items []T) error {
	if items == nil {
		items = []T{}
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, items)
	case FormatYAML:
		return WriteYAML(w, items)
	default:
		return RenderTable(w, cols, items)
	}
}

// PrintValue writes a single value. table renders it for the table format.
func PrintValue(w io.Writer, format Format, v any, table func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, v)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return table(w)
	}
}

// PageFooter describes the position of a page within a list.
func PageFooter(page, totalPages, total int) string {
	if totalPages == 0 {
		return SubtleStyle.Render("no results")
	}
	return SubtleStyle.Render(fmt.Sprintf("page %d of %d, %d total", page, totalPages, total))
}

// Truncate shortens s to width runes, marking the cut with an ellipsis. A
// width <= 0 leaves s untouched.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
