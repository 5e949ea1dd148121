// Package input resolves which file to scan and opens it.
package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
)

// Prompt is written when no file name is given on the command line.
const Prompt = "Enter the file name: "

// Stdin is the file name that selects standard input.
const Stdin = "-"

// ResolvePath returns the first positional argument, or prompts on out and
// reads one line from in. Nothing past the newline is consumed, so in can
// still be scanned when the answer is Stdin.
func ResolvePath(args []string, in io.Reader, out io.Writer) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if _, err := io.WriteString(out, Prompt); err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}
	line, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("%w: reading file name: %w", apperrors.ErrRead, err)
	}
	return strings.TrimSuffix(line, "\r"), nil
}

// readLine reads up to and excluding the next newline one byte at a time.
func readLine(in io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Open opens name for reading. The name Stdin returns stdin with a no-op
// close.
func Open(name string, stdin io.Reader) (io.ReadCloser, error) {
	if name == Stdin {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, openError(name, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, openError(name, errors.New("is a directory"))
	}
	return f, nil
}

func openError(name string, cause error) error {
	return apperrors.Newf(fmt.Errorf("%w: %w", apperrors.ErrFileOpen, cause),
		apperrors.ExitFailure, "Can't open the file `%s`", name)
}
