package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"noisec/internal/buildpipeline"
	"noisec/internal/driver"
	"noisec/internal/ui"
)

type compileOutcome struct {
	results []*driver.Result
	err     error
}

// runCompileWithUI runs compile in the background and shows its progress
// events until it finishes.
func runCompileWithUI(ctx context.Context, title string, files []string, opts driver.Options,
	compile func(context.Context, driver.Options) ([]*driver.Result, error),
) ([]*driver.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := compile(ctx, optsCopy)
		outcomeCh <- compileOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
