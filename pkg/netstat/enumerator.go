// Package netstat captures snapshots of the host's active network connections.
package netstat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// DefaultLimit caps how many sockets a single snapshot returns.
const DefaultLimit = 200

// DefaultProcRoot is where the kernel exposes procfs.
const DefaultProcRoot = "/proc"

// Enumerator produces one snapshot of active connections.
type Enumerator interface {
	Connections(ctx context.Context) ([]models.Connection, error)
}

// ErrorKind classifies why enumeration failed.
type ErrorKind string

const (
	ErrPermission  ErrorKind = "permission"
	ErrUnsupported ErrorKind = "unsupported"
	ErrIO          ErrorKind = "io"
)

// EnumerationError is returned when no snapshot could be taken.
type EnumerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerating connections (%s): %v", e.Kind, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an enumeration failure. Errors that are not an
// EnumerationError are reported as ErrIO.
func KindOf(err error) ErrorKind {
	var enumErr *EnumerationError
	if errors.As(err, &enumErr) {
		return enumErr.Kind
	}
	return ErrIO
}

func wrapFSError(err error) *EnumerationError {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &EnumerationError{Kind: ErrPermission, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &EnumerationError{Kind: ErrUnsupported, Err: err}
	default:
		return &EnumerationError{Kind: ErrIO, Err: err}
	}
}

// Static always returns the same connections. It backs saved snapshots and tests.
type Static []models.Connection

// Connections implements Enumerator.
func (s Static) Connections(ctx context.Context) ([]models.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EnumerationError{Kind: ErrIO, Err: err}
	}
	out := make([]models.Connection, len(s))
	copy(out, s)
	return out, nil
}
