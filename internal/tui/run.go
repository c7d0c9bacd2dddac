package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the browser until the user quits or ctx is done.
func Run[T any](ctx context.Context, b Browser[T]) error {
	defer b.Close()

	p := tea.NewProgram(b, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
