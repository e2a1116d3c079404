package cli

import (
	"os"

	"golang.org/x/term"
)

// interactive is swapped out by tests that drive the prompt.
var interactive = isInteractive

// isInteractive reports whether a human is at the terminal. CI and
// ASSETSCAN_NON_INTERACTIVE=1 force non-interactive runs.
func isInteractive() bool {
	if os.Getenv("ASSETSCAN_NON_INTERACTIVE") == "1" || os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
