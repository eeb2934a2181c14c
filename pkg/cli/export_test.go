package cli

import "io"

// SetConsoleOutput redirects console reports and returns a function restoring the previous writer
func SetConsoleOutput(w io.Writer) func() {
	prev := consoleOutput
	consoleOutput = w
	return func() { consoleOutput = prev }
}
