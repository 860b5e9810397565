// Package workspace defines the bounded directory tree the agent may write
// into. Every path a tool touches is derived from a Workspace; callers never
// supply raw paths.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultNamespace is the deployment directory under the root that holds
// agent-owned artifacts.
const DefaultNamespace = "ariadne"

// NotesFile is the name of the append-only memory log.
const NotesFile = "notes.md"

// ErrOutsideWorkspace is returned by Resolve when a path would escape the root.
var ErrOutsideWorkspace = errors.New("path escapes workspace root")

// Workspace represents the agent workspace directory structure.
// It provides path helpers and ensures the required subdirectories exist.
type Workspace struct {
	Root      string
	Namespace string
}

// New creates a new Workspace rooted at the given directory with the
// default namespace.
func New(root string) *Workspace {
	return &Workspace{Root: root, Namespace: DefaultNamespace}
}

// WithNamespace returns a copy of w using ns as namespace. An empty ns
// keeps DefaultNamespace.
func (w *Workspace) WithNamespace(ns string) *Workspace {
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Workspace{Root: w.Root, Namespace: ns}
}

// EnsureStructure creates the root and data directories if they do not
// exist. Artifact directories are created lazily by the tools that write
// into them, so a rejected call never leaves an empty directory behind.
// Idempotent.
func (w *Workspace) EnsureStructure() error {
	for _, dir := range []string{w.Root, w.DataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// NamespaceDir returns the directory holding agent-owned artifacts.
func (w *Workspace) NamespaceDir() string {
	ns := w.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return filepath.Join(w.Root, ns)
}

// ProposalsDir returns the directory where proposals are staged.
func (w *Workspace) ProposalsDir() string {
	return filepath.Join(w.NamespaceDir(), "proposals")
}

// MemoryDir returns the path to the memory directory.
func (w *Workspace) MemoryDir() string {
	return filepath.Join(w.NamespaceDir(), "memory")
}

// NotesPath returns the path to the append-only notes log.
func (w *Workspace) NotesPath() string {
	return filepath.Join(w.MemoryDir(), NotesFile)
}

// DataDir returns the path to the data directory (ledger, audit log).
func (w *Workspace) DataDir() string {
	return filepath.Join(w.Root, "data")
}

// Resolve joins rel onto the root and rejects results outside it.
// Absolute inputs are rejected as well.
func (w *Workspace) Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrOutsideWorkspace, rel)
	}
	root := filepath.Clean(w.Root)
	p := filepath.Join(root, rel)
	r, err := filepath.Rel(root, p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideWorkspace, err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, rel)
	}
	return p, nil
}
