// Writer selection for STDOUT output
package sim

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"relaychain-sim/internal/config"
)

// Output modes for STDOUT.
const (
	OutputAuto  = "auto"
	OutputJSON  = "json"
	OutputColor = "color"
	OutputTUI   = "tui"
)

// StdoutIsTerminal reports whether STDOUT is attached to a terminal.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ResolveOutput turns "auto" (or empty) into color on a terminal and JSON otherwise.
func ResolveOutput(mode string, isTerminal bool) (string, error) {
	switch mode {
	case "", OutputAuto:
		if isTerminal {
			return OutputColor, nil
		}
		return OutputJSON, nil
	case OutputJSON, OutputColor, OutputTUI:
		return mode, nil
	}
	return "", fmt.Errorf("unknown output mode %q", mode)
}

// NewStdoutWriter returns the writer for a resolved non-TUI output mode.
func NewStdoutWriter(cfg *config.SimulationConfig, mode string) StatusWriter {
	if mode == OutputColor {
		return NewColorStdoutWriter(cfg)
	}
	return NewJSONStdoutWriter()
}
