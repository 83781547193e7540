package cmd

import (
	"fmt"
	"github.com/go-errors/errors"
	"github.com/minvws/eudcc-decoder/common"
	"golang.org/x/term"
	"io"
	"os"
	"strings"
)

// readInput reads the QR contents from a file path, "-" or nothing for stdin, or the raw argument itself
func readInput(input string) (string, error) {
	return readInputFrom(input, os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
}

func readInputFrom(input string, stdin io.Reader, interactive bool) (string, error) {
	input = strings.TrimSpace(input)

	if input == "-" || input == "" {
		if interactive {
			return "", errors.Errorf("No input provided (use a file path, a raw HC1: string, or pipe to stdin)")
		}

		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.WrapPrefix(err, "Could not read stdin", 0)
		}

		return strings.TrimSpace(string(b)), nil
	}

	// A raw HC1: string is never treated as a path
	if common.HasEUPrefix(input) {
		return input, nil
	}

	if _, err := os.Stat(input); err == nil {
		b, err := os.ReadFile(input)
		if err != nil {
			msg := fmt.Sprintf("Could not read file %s", input)
			return "", errors.WrapPrefix(err, msg, 0)
		}

		return strings.TrimSpace(string(b)), nil
	}

	return input, nil
}
