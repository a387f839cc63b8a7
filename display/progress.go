package display

import (
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// CLIEmitter prints progress lines to the terminal with pterm.
// Lines are shown at -v and above; at verbosity 0 a spinner shows the
// latest line instead and is cleared by Stop.
type CLIEmitter struct {
	verbosity int
	writer    io.Writer

	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
	lines   int
}

// NewCLIEmitter creates a CLI progress emitter writing to w
func NewCLIEmitter(w io.Writer, verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity, writer: w}
}

// EmitInfo implements pulse.ProgressEmitter
func (e *CLIEmitter) EmitInfo(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines++

	if e.verbosity >= 1 {
		pterm.Info.WithWriter(e.writer).Println(message)
		return
	}
	if e.spinner == nil {
		e.spinner, _ = pterm.DefaultSpinner.WithWriter(e.writer).WithRemoveWhenDone(true).Start(message)
		return
	}
	e.spinner.UpdateText(message)
}

// Stop clears the spinner, if any, and reports how many lines were emitted
func (e *CLIEmitter) Stop() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spinner != nil {
		_ = e.spinner.Stop()
		e.spinner = nil
	}
	return e.lines
}
