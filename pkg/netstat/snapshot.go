package netstat

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// LoadSnapshot reads a JSON array of connections previously saved with
// WriteSnapshot or produced by hand.
func LoadSnapshot(path string) (Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapFSError(err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// ReadSnapshot decodes a JSON array of connections from r.
func ReadSnapshot(r io.Reader) (Static, error) {
	var conns []models.Connection
	if err := json.NewDecoder(r).Decode(&conns); err != nil {
		return nil, &EnumerationError{Kind: ErrIO, Err: fmt.Errorf("decoding snapshot: %w", err)}
	}
	for i := range conns {
		if conns[i].Process == "" {
			conns[i].Process = models.UnknownProcess
		}
	}
	return Static(conns), nil
}

// WriteSnapshot encodes conns as indented JSON.
func WriteSnapshot(w io.Writer, conns []models.Connection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(conns); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}
