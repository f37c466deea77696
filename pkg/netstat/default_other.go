//go:build !linux

package netstat

import (
	"context"
	"errors"
	"runtime"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

type unsupported struct{}

func (unsupported) Connections(context.Context) ([]models.Connection, error) {
	return nil, &EnumerationError{
		Kind: ErrUnsupported,
		Err:  errors.New("live connection enumeration is not implemented on " + runtime.GOOS),
	}
}

// NewDefault returns the enumerator for the running platform. Outside Linux
// it always fails with ErrUnsupported; use a saved snapshot instead.
func NewDefault(_ string, _ int) Enumerator {
	return unsupported{}
}
