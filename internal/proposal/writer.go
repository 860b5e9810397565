package proposal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// writeExclusive creates dir/name and writes content to it. The file must
// not exist yet: a collision returns ErrProposalExists and leaves the
// existing file untouched. If the write fails after creation, the partial
// file this call created is removed.
func writeExclusive(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create proposals directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrProposalExists, path)
		}
		return "", fmt.Errorf("create proposal %s: %w", path, err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write proposal %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close proposal %s: %w", path, err)
	}
	return path, nil
}
