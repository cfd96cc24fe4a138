package corpus

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned for corpus files that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("corpus is not valid UTF-8")

// ReadFile reads a UTF-8 corpus file.
func ReadFile(path string) (string, error) {
	//nolint:gosec // G304: the corpus path comes from the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}
	return string(data), nil
}
