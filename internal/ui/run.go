package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"vidtool/internal/batch"
)

// Run drives the interactive encode screen until the batch finishes or
// the user cancels. The returned summary reflects whatever completed.
func Run(ctx context.Context, p Params) (batch.Summary, error) {
	m := newModel(ctx, p)
	defer m.cancel()

	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return batch.Summary{}, fmt.Errorf("ui: %w", err)
	}

	fm, ok := final.(*Model)
	if !ok {
		return batch.Summary{}, nil
	}
	if fm.summary == nil {
		return batch.Summary{}, fm.runErr
	}
	return *fm.summary, fm.runErr
}
