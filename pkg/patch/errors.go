package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingNode is returned when a mounted record no longer has the DOM
	// node it needs (the node was detached outside the patcher).
	ErrMissingNode = errors.New("patch: missing DOM node")

	// ErrNoHost is returned when a tree contains a component placeholder and
	// the patcher has no Host.
	ErrNoHost = errors.New("patch: component placeholder without host")
)

// PatchError describes a failed DOM operation.
type PatchError struct {
	Op  string // "insert", "remove", "move", "patch", "mount"
	Tag string // Tag of the virtual node, "" for text and fragments
	Key string
	Err error
}

func (e *PatchError) Error() string {
	target := e.Tag
	if target == "" {
		target = "node"
	}
	if e.Key != "" {
		return fmt.Sprintf("patch %s <%s key=%q>: %v", e.Op, target, e.Key, e.Err)
	}
	return fmt.Sprintf("patch %s <%s>: %v", e.Op, target, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

func opError(op string, t Target, err error) error {
	var pe *PatchError
	if errors.As(err, &pe) {
		return err
	}
	return &PatchError{Op: op, Tag: t.Tag, Key: t.Key, Err: err}
}
