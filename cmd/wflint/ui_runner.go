package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"wflint/internal/driver"
	"wflint/internal/source"
	"wflint/internal/ui"
)

type checkOutcome struct {
	results []*driver.FileResult
	err     error
}

// runChecksWithUI runs CheckPaths in the background while the progress view
// owns the terminal. The view quits once the event channel is closed.
func runChecksWithUI(ctx context.Context, title string, fs *source.FileSet, paths []string, opts driver.Options) ([]*driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.CheckPaths(ctx, fs, paths, opts)
		outcomeCh <- checkOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// вид закрылся раньше времени: вычитываем события, чтобы воркеры не встали
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
