package memory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// appendEntry appends text to the log at path in a single write on an
// O_APPEND descriptor, creating the file and its directory if needed.
// Existing bytes are never read, truncated or rewritten.
func appendEntry(path, text string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create memory directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open notes %s: %w", path, err)
	}

	n, err := f.Write([]byte(text))
	if err == nil && n < len(text) {
		err = io.ErrShortWrite
	}
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("append notes %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close notes %s: %w", path, err)
	}
	return n, nil
}
