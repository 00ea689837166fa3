package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vango-dev/fibre/pkg/dom"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot: not found")

// ErrInvalidName is returned for names that cannot be used as keys.
var ErrInvalidName = errors.New("snapshot: invalid name")

// MaxNameLength is the longest accepted snapshot name.
const MaxNameLength = 128

// Snapshot is the serialized body of a document.
type Snapshot struct {
	Name      string    `json:"name"`
	HTML      string    `json:"html"`
	Mutations uint64    `json:"mutations"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put stores snap, replacing any snapshot with the same name.
	Put(ctx context.Context, snap *Snapshot) error

	// Get returns the snapshot with the given name or ErrNotFound.
	Get(ctx context.Context, name string) (*Snapshot, error)

	// List returns the stored names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases the resources held by the store.
	Close() error
}

// Take serializes the body of doc. It must be called from the goroutine
// that owns doc.
func Take(doc *dom.Document, name string) *Snapshot {
	return &Snapshot{
		Name:      name,
		HTML:      dom.InnerHTML(doc.Body()),
		Mutations: doc.MutationCount(),
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateName checks that name is usable as a key by every store: non-empty,
// at most MaxNameLength bytes, made of letters, digits, '-', '_' and '.',
// and not starting with a dot.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
