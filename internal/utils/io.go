package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinArg is the argument value that means "read this from stdin".
const StdinArg = "-"

// ReadStdin reads everything piped to the process. hint names what the
// command expected so the error is actionable when nothing was piped.
func ReadStdin(hint string) ([]byte, error) {
	return readPiped(os.Stdin, hint)
}

// ArgOrStdin returns arg, or the piped stdin contents without the trailing
// newline when arg is "-".
func ArgOrStdin(arg, hint string) (string, error) {
	if arg != StdinArg {
		return arg, nil
	}
	data, err := ReadStdin(hint)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r"), nil
}

func readPiped(f *os.File, hint string) ([]byte, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stdin: %w", err)
	}

	// ModeCharDevice means a terminal, not piped data.
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, fmt.Errorf("no data provided on stdin (hint: pipe %s to this command)", hint)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stdin is empty")
	}
	return data, nil
}
