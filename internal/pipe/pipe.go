// Package pipe detects pipeline execution and reads piped input.
package pipe

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// MaxInput caps how much piped input is read.
const MaxInput = 16 << 20

// IsStdinPiped returns true if stdin is receiving piped input.
func IsStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode()&os.ModeCharDevice) == 0 || stat.Size() > 0
}

// IsStdoutPiped returns true if stdout is being piped to another process.
func IsStdoutPiped() bool {
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

// ReadStdin reads all available data from stdin.
// Returns empty string if stdin is not piped.
func ReadStdin() (string, error) {
	if !IsStdinPiped() {
		return "", nil
	}
	return ReadAll(os.Stdin)
}

// ReadAll reads r up to MaxInput bytes.
func ReadAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInput+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxInput {
		return "", fmt.Errorf("input exceeds %d bytes", MaxInput)
	}
	return string(data), nil
}
