//go:build linux

package netstat

// NewDefault returns the enumerator for the running platform, reading procfs
// mounted at root.
func NewDefault(root string, limit int) Enumerator {
	return &ProcEnumerator{Root: root, Limit: limit}
}
