// Package ledger keeps a SQLite index of every artifact the agent tools
// write. The files on disk remain the source of truth; the ledger exists so
// operators can list pending proposals without walking the workspace.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies the tool family that produced an artifact.
type Kind string

// Artifact kinds.
const (
	KindConfigChange Kind = "config_change"
	KindChange       Kind = "change"
	KindNote         Kind = "note"
)

// Status values recorded at creation time. Nothing in this module moves a
// proposal out of StatusPending; operators do that by hand.
const (
	StatusPending  = "PENDING"
	StatusAppended = "APPENDED"
)

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("ledger: unknown kind")

// ParseKind validates s as a Kind. The empty string is accepted and, used
// in a Filter, matches every kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "", KindConfigChange, KindChange, KindNote:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ErrNotFound is returned by Get when no record has the given ID.
var ErrNotFound = errors.New("ledger: record not found")

// Record is one indexed artifact.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Tool      string    `json:"tool"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder indexes a freshly written artifact. Tools call it after the
// file is on disk; a failing Recorder never undoes the write.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Kind   Kind
	Status string
	Limit  int
}

// DefaultListLimit caps List when Filter.Limit is not positive.
const DefaultListLimit = 100
